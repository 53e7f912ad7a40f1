package arbor

import (
	"fmt"
	"strings"
)

// FileTemplate is a skeleton for a newly created Java source file.
type FileTemplate int

const (
	TemplateClass FileTemplate = iota
	TemplateInterface
	TemplateEnum
	TemplateRecord
	TemplateAnnotation
	TemplateRepository
)

// ParseFileTemplate maps a template name to its FileTemplate.
func ParseFileTemplate(name string) (FileTemplate, error) {
	switch name {
	case "class":
		return TemplateClass, nil
	case "interface":
		return TemplateInterface, nil
	case "enum":
		return TemplateEnum, nil
	case "record":
		return TemplateRecord, nil
	case "annotation":
		return TemplateAnnotation, nil
	case "repository":
		return TemplateRepository, nil
	default:
		return TemplateClass, fmt.Errorf("unknown file template %q", name)
	}
}

func (t FileTemplate) String() string {
	switch t {
	case TemplateInterface:
		return "interface"
	case TemplateEnum:
		return "enum"
	case TemplateRecord:
		return "record"
	case TemplateAnnotation:
		return "annotation"
	case TemplateRepository:
		return "repository"
	default:
		return "class"
	}
}

// Render produces the source text for a new file declaring typeName in
// packageName.
func (t FileTemplate) Render(packageName, typeName string) string {
	switch t {
	case TemplateInterface:
		return fmt.Sprintf("package %s;\n\npublic interface %s {\n\n}", packageName, typeName)
	case TemplateEnum:
		return fmt.Sprintf("package %s;\n\npublic enum %s {\n\n}", packageName, typeName)
	case TemplateRecord:
		return fmt.Sprintf("package %s;\n\npublic record %s(\n\n) {\n\n}", packageName, typeName)
	case TemplateAnnotation:
		return fmt.Sprintf("package %s;\n\npublic @interface %s {\n\n}", packageName, typeName)
	case TemplateRepository:
		return RenderRepository(packageName, strings.TrimSuffix(typeName, "Repository"), "Long")
	default:
		return fmt.Sprintf("package %s;\n\npublic class %s {\n\n}", packageName, typeName)
	}
}

// RenderRepository produces a Spring Data repository interface for an
// entity and its id type. The interface name is derived from the entity.
// Render uses Long as the id type; Engine.CreateFile substitutes the
// entity's actual @Id field type when it can resolve the entity.
func RenderRepository(packageName, entityType, idType string) string {
	return fmt.Sprintf("package %s;\n\n"+
		"import org.springframework.data.jpa.repository.JpaRepository;\n"+
		"import org.springframework.stereotype.Repository;\n\n"+
		"@Repository\n"+
		"public interface %sRepository extends JpaRepository<%s, %s> {\n\n}",
		packageName, entityType, entityType, idType)
}
