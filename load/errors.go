package load

import "fmt"

// FormatError 参数表结构不符合 ACOPOS 参数表格式
type FormatError struct {
	Source string // 文件名, 从 io.Reader 加载时为空
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := "not an ACOPOS parameter table: " + e.Reason
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValueError 已识别参数的值无法解析
type ValueError struct {
	Name  string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("parameter %s: invalid value %q: %v", e.Name, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }
