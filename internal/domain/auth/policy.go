package auth

import (
	"fmt"
	"os"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Policy holds the route and sensitive-operation tables consulted by the
// Authorizer. Routes are allowed unless listed; operations are denied unless
// listed.
type Policy struct {
	Routes     map[string]Permission `koanf:"routes" json:"routes"`
	Operations map[string]Permission `koanf:"operations" json:"operations"`
}

const (
	OpDeleteEmployee = "delete:employee"
	OpModifySalary   = "modify:salary"
	OpAccessPayroll  = "access:payroll"
	OpExportData     = "export:data"
	OpSystemSettings = "system:settings"
)

func DefaultPolicy() Policy {
	return Policy{
		Routes: map[string]Permission{
			"/employees":          PermEmployeesRead,
			"/performance":        PermPerformanceRead,
			"/analytics":          PermAnalyticsReadBasic,
			"/admin":              PermUsersCreate,
			"/admin/users":        PermUsersCreate,
			"/admin/system":       PermSystemManage,
			"/analytics/advanced": PermAnalyticsReadAdvanced,
		},
		Operations: map[string]Permission{
			OpDeleteEmployee: PermEmployeesDelete,
			OpModifySalary:   PermEmployeesSalary,
			OpAccessPayroll:  PermPayrollAccess,
			OpExportData:     PermDataExport,
			OpSystemSettings: PermSystemManage,
		},
	}
}

// LoadPolicy layers an optional YAML file over DefaultPolicy. A table present
// in the file (routes or operations) replaces the default table as a whole; a
// table the file omits keeps its defaults. An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	// route paths and operation names never contain "|", unlike "."
	k := koanf.New("|")

	if err := k.Load(structs.Provider(DefaultPolicy(), "koanf"), nil); err != nil {
		return Policy{}, fmt.Errorf("load default policy: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Policy{}, fmt.Errorf("policy file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Policy{}, fmt.Errorf("load policy file %s: %w", path, err)
		}
	}

	var policy Policy
	if err := k.Unmarshal("", &policy); err != nil {
		return Policy{}, fmt.Errorf("unmarshal policy: %w", err)
	}
	if policy.Routes == nil {
		policy.Routes = map[string]Permission{}
	}
	if policy.Operations == nil {
		policy.Operations = map[string]Permission{}
	}
	for route, perm := range policy.Routes {
		if perm == "" {
			return Policy{}, fmt.Errorf("route %q has an empty permission", route)
		}
	}
	for op, perm := range policy.Operations {
		if perm == "" {
			return Policy{}, fmt.Errorf("operation %q has an empty permission", op)
		}
	}
	return policy, nil
}

func (p Policy) RoutePermission(path string) (Permission, bool) {
	perm, ok := p.Routes[path]
	return perm, ok
}

func (p Policy) OperationPermission(op string) (Permission, bool) {
	perm, ok := p.Operations[op]
	return perm, ok
}

func (p Policy) RouteNames() []string {
	return sortedKeys(p.Routes)
}

func (p Policy) OperationNames() []string {
	return sortedKeys(p.Operations)
}

func sortedKeys(m map[string]Permission) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
