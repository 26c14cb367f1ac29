package common

type Module string

const (
	ModuleSale     Module = "sale"
	ModuleOperator Module = "operator"
)

func (m Module) String() string {
	return string(m)
}
