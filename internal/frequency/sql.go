package frequency

import (
	"context"
	"database/sql"
	"fmt"
	"popstudy/internal/database"
	"regexp"
	"strings"
)

var functionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLFunction delegates the arithmetic to a function installed in the
// relational engine, called as fn(occurrence, males, females, chrom, position).
// Function names are chosen per assembly, falling back to a default.
type SQLFunction struct {
	db        *database.DB
	functions map[string]string
	fallback  string
}

// NewSQLFunction validates the function names and returns the estimator.
func NewSQLFunction(db *database.DB, fallback string, perAssembly map[string]string) (*SQLFunction, error) {
	fns := make(map[string]string, len(perAssembly))
	for asm, fn := range perAssembly {
		if !functionName.MatchString(fn) {
			return nil, fmt.Errorf("frequency: invalid function name %q", fn)
		}
		fns[strings.ToLower(asm)] = fn
	}
	if fallback != "" && !functionName.MatchString(fallback) {
		return nil, fmt.Errorf("frequency: invalid function name %q", fallback)
	}
	return &SQLFunction{db: db, functions: fns, fallback: fallback}, nil
}

// Estimate implements Estimator.
func (s *SQLFunction) Estimate(ctx context.Context, in Input) (float64, error) {
	fn, ok := s.functions[strings.ToLower(in.Assembly)]
	if !ok {
		fn = s.fallback
	}
	if fn == "" {
		return 0, fmt.Errorf("frequency: no function for assembly %q", in.Assembly)
	}
	var args []any
	var marks []string
	// UnknownSex is non-zero only on autosomes, where both sexes are diploid.
	for i, v := range []any{in.Occurrence, in.Males + in.UnknownSex, in.Females, in.Chrom, in.Position} {
		args = append(args, v)
		marks = append(marks, s.db.Placeholder(i+1))
	}
	query := fmt.Sprintf("SELECT %s(%s)", fn, strings.Join(marks, ", "))
	return database.RunWithConnection(ctx, s.db, func(ctx context.Context, conn *sql.Conn) (float64, error) {
		var f sql.NullFloat64
		if err := conn.QueryRowContext(ctx, query, args...).Scan(&f); err != nil {
			return 0, fmt.Errorf("frequency: %s: %w", fn, err)
		}
		return f.Float64, nil
	})
}
