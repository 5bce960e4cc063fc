package motor

// Field 参数表中可识别的参数
type Field uint8

const (
	FieldType          Field = iota // MOTOR_TYPE
	TorqueConstant                  // 转矩常数(Nm/A)
	StatorResistance                // 定子电阻(Ω)
	RotorResistance                 // 转子电阻(Ω), 仅异步电机
	MagnetizingCurrent              // 励磁电流(A 有效值)
	MutualInductance                // 互感(H)
	RotorInductance                 // 转子漏感(H)
	RatedSpeed                      // 额定转速(rpm)
	MaxCurrent                      // 最大电流(A 有效值)
	Inertia                         // 转动惯量(kgm²)
	PolePairs                       // 极对数

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldType:          "MOTOR_TYPE",
	TorqueConstant:     "MOTOR_TORQ_CONST",
	StatorResistance:   "MOTOR_STATOR_RESISTANCE",
	RotorResistance:    "MOTOR_ROTOR_RESISTANCE",
	MagnetizingCurrent: "MOTOR_MAGNETIZING_CURR",
	MutualInductance:   "MOTOR_MUTUAL_INDUCTANCE",
	RotorInductance:    "MOTOR_ROTOR_INDUCTANCE",
	RatedSpeed:         "MOTOR_SPEED_RATED",
	MaxCurrent:         "MOTOR_CURR_MAX",
	Inertia:            "MOTOR_INERTIA",
	PolePairs:          "MOTOR_POLEPAIRS",
}

// fieldLookup 参数名称到参数的映射
var fieldLookup = func() map[string]Field {
	m := make(map[string]Field, fieldCount)
	for f, name := range fieldNames {
		m[name] = Field(f)
	}
	return m
}()

// required 每种电机类型计算所需的参数, 按检查顺序排列
var required = map[Type][]Field{
	Synchronous: {TorqueConstant, StatorResistance, MaxCurrent},
	Induction: {
		PolePairs, MagnetizingCurrent, MutualInductance, RotorInductance,
		StatorResistance, RatedSpeed, MaxCurrent,
	},
}

// String 参数表中的名称
func (f Field) String() string {
	if f < fieldCount {
		return fieldNames[f]
	}
	return "MOTOR_?"
}

// Lookup 根据参数表名称查找参数, 未知名称返回 false
func Lookup(name string) (Field, bool) {
	f, ok := fieldLookup[name]
	return f, ok
}

// Fields 全部可识别参数
func Fields() []Field {
	list := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		list = append(list, f)
	}
	return list
}

// Required 指定电机类型必需的参数
func Required(t Type) []Field {
	return append([]Field(nil), required[t]...)
}

// Parameters 电机铭牌参数
// 结构体可直接比较, 同一参数表两次加载的结果相等
type Parameters struct {
	Name     string // 电机名称
	Type     Type   // 电机类型
	TypeCode int    // MOTOR_TYPE 原始编码

	values  [fieldCount]float64
	present [fieldCount]bool
}

// Set 写入一个参数值, 仅在加载过程中使用
// MOTOR_TYPE 立即分类, 极对数截断为整数
func (p *Parameters) Set(f Field, v float64) error {
	if f >= fieldCount {
		return nil
	}
	switch f {
	case FieldType:
		t, err := Classify(v)
		if err != nil {
			return err
		}
		p.Type, p.TypeCode = t, int(v)
	case PolePairs:
		v = float64(int(v))
	}
	p.values[f], p.present[f] = v, true
	return nil
}

// Get 读取参数值及其是否存在
func (p Parameters) Get(f Field) (float64, bool) {
	if f >= fieldCount {
		return 0, false
	}
	return p.values[f], p.present[f]
}

// Value 读取参数值, 不存在时为 0
func (p Parameters) Value(f Field) float64 {
	v, _ := p.Get(f)
	return v
}

// Has 参数是否存在
func (p Parameters) Has(f Field) bool {
	_, ok := p.Get(f)
	return ok
}

// Require 读取必需参数, 不存在时返回 MissingFieldError
func (p Parameters) Require(f Field) (float64, error) {
	v, ok := p.Get(f)
	if !ok {
		return 0, &MissingFieldError{Field: f, Type: p.Type}
	}
	return v, nil
}

// PolePairCount 极对数
func (p Parameters) PolePairCount() int { return int(p.values[PolePairs]) }

// Validate 检查当前电机类型所需参数是否完整, 返回第一个缺失的参数
func (p Parameters) Validate() error {
	if p.Type == Unknown {
		return &MissingFieldError{Field: FieldType}
	}
	for _, f := range required[p.Type] {
		if !p.present[f] {
			return &MissingFieldError{Field: f, Type: p.Type}
		}
	}
	return nil
}

// Map 导出已存在的参数
func (p Parameters) Map() map[string]float64 {
	m := make(map[string]float64)
	for f := Field(0); f < fieldCount; f++ {
		if p.present[f] {
			m[fieldNames[f]] = p.values[f]
		}
	}
	return m
}
