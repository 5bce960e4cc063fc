package motor

import "fmt"

// Type 电机类型
type Type uint

const (
	Unknown     Type = iota // 未分类(参数表缺少 MOTOR_TYPE)
	Induction               // 异步电机 ASM
	Synchronous             // 同步电机 SM
)

// String 类型名称
func (t Type) String() string {
	switch t {
	case Induction:
		return "induction"
	case Synchronous:
		return "synchronous"
	}
	return "unknown"
}

// Short 图表标题使用的缩写
func (t Type) Short() string {
	switch t {
	case Induction:
		return "ASM"
	case Synchronous:
		return "SM"
	}
	return "?"
}

// Classify 根据 MOTOR_TYPE 编码得到电机类型
// 1,3 为异步电机; 2,4 为同步电机; 其它编码返回 UnknownMotorTypeError
func Classify(code float64) (Type, error) {
	if code != float64(int(code)) {
		return Unknown, &UnknownMotorTypeError{Code: code}
	}
	switch int(code) {
	case 1, 3:
		return Induction, nil
	case 2, 4:
		return Synchronous, nil
	}
	return Unknown, &UnknownMotorTypeError{Code: code}
}

// UnknownMotorTypeError MOTOR_TYPE 编码无法识别
type UnknownMotorTypeError struct {
	Code float64
}

func (e *UnknownMotorTypeError) Error() string {
	return fmt.Sprintf("unknown motor type code %v", e.Code)
}

// MissingFieldError 当前电机类型所需的参数不存在
type MissingFieldError struct {
	Field Field
	Type  Type
}

func (e *MissingFieldError) Error() string {
	if e.Type == Unknown {
		return fmt.Sprintf("missing parameter %s", e.Field)
	}
	return fmt.Sprintf("missing parameter %s required by %s motor", e.Field, e.Type)
}
