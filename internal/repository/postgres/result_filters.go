package postgres

import (
	"fmt"
	"strings"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/repository"
)

// buildResultFilterClause constructs SQL filter clauses for result listings
func buildResultFilterClause(filter repository.ResultFilter, alias string, startIndex int) (string, []interface{}) {
	alias = normalizeAlias(alias)
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if filter.RunID != "" {
		clauses = append(clauses, fmt.Sprintf("%srun_id = $%d", alias, idx))
		args = append(args, filter.RunID)
		idx++
	}

	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("%sstatus = $%d", alias, idx))
		args = append(args, strings.ToLower(filter.Status))
		idx++
	}

	if filter.Strategy != "" {
		clauses = append(clauses, fmt.Sprintf("%sstrategy = $%d", alias, idx))
		args = append(args, strings.ToLower(filter.Strategy))
		idx++
	}

	if filter.ABCCategory != "" {
		clauses = append(clauses, fmt.Sprintf("%sabc_category = $%d", alias, idx))
		args = append(args, strings.ToUpper(filter.ABCCategory))
		idx++
	}

	if len(filter.ItemIDs) > 0 {
		placeholders := make([]string, len(filter.ItemIDs))
		for i, id := range filter.ItemIDs {
			placeholders[i] = fmt.Sprintf("$%d", idx)
			args = append(args, id)
			idx++
		}
		clauses = append(clauses, fmt.Sprintf("%sitem_id IN (%s)", alias, strings.Join(placeholders, ",")))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}
