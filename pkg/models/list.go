package models

import "github.com/nexuscrm/backoffice/pkg/constants"

// SortState is the single active sort of a list
type SortState struct {
	Field     string                  `json:"field"`
	Direction constants.SortDirection `json:"direction"`
}

// ListState is the complete input of the list pipeline besides the records
type ListState struct {
	SearchTerm         string                 `json:"searchTerm"`
	CustomFieldFilters map[string]interface{} `json:"customFieldFilters,omitempty"`
	FilterExpr         string                 `json:"filterExpr,omitempty"`
	Sort               SortState              `json:"sort"`
	Page               int                    `json:"page"`
	PageSize           int                    `json:"pageSize"`
	VisibleColumnIDs   []string               `json:"visibleColumnIds,omitempty"`
}

// Clone returns a copy safe to mutate
func (s ListState) Clone() ListState {
	out := s
	if s.CustomFieldFilters != nil {
		out.CustomFieldFilters = make(map[string]interface{}, len(s.CustomFieldFilters))
		for k, v := range s.CustomFieldFilters {
			out.CustomFieldFilters[k] = v
		}
	}
	if s.VisibleColumnIDs != nil {
		out.VisibleColumnIDs = append([]string(nil), s.VisibleColumnIDs...)
	}
	return out
}
