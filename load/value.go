package load

import (
	"strconv"
	"strings"
)

// ParseValue 解析参数值
// "0x" 前缀按十六进制整数解析, 否则按十进制数解析, 逗号视为小数点
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		v, err := strconv.ParseInt(hex, 16, 64)
		if err != nil {
			return 0, err
		}
		return float64(v), nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
