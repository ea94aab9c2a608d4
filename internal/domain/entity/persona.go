package entity

// Persona 人设档案：驱动预言机提示词的描述性资料。
// 进度引擎不会修改人设，这里按值传递。
type Persona struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	System      string `json:"system,omitempty" yaml:"system,omitempty"`
}

// GenericPersona 返回兜底的通用人设
func GenericPersona(id, name string) Persona {
	return Persona{
		ID:          id,
		Name:        name,
		Description: "Generic friendly persona.",
	}
}
