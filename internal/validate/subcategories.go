package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shopcms/internal/catalog"
)

type subCategoryInput struct {
	ID       string `json:"_id" schema:"_id"`
	Name     string `json:"name" schema:"name" validate:"required,max=50"`
	IsPublic *bool  `json:"isPublic" schema:"isPublic"`
}

// SubCategories parses the JSON array sent as a category's subCategories
// value. Names are required and unique within the list. Missing ids are
// assigned and isPublic defaults to true.
func (v *Validator) SubCategories(raw string) ([]catalog.SubCategory, error) {
	subs := []catalog.SubCategory{}
	if strings.TrimSpace(raw) == "" {
		return subs, nil
	}

	var inputs []subCategoryInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		return nil, &catalog.ValidationError{Field: "subCategories", Reason: `"subCategories" must be an array`}
	}

	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		prefix := fmt.Sprintf("subCategories[%d].", i)
		if err := v.validate.Struct(&in); err != nil {
			return nil, firstError(prefix, err)
		}
		if seen[in.Name] {
			field := fmt.Sprintf("subCategories[%d]", i)
			return nil, &catalog.ValidationError{Field: field, Reason: fmt.Sprintf("%q contains a duplicate value", field)}
		}
		seen[in.Name] = true

		sub := catalog.SubCategory{ID: in.ID, Name: in.Name, IsPublic: true}
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		}
		if in.IsPublic != nil {
			sub.IsPublic = *in.IsPublic
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
