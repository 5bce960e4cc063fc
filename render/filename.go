package render

import "strings"

// unsafeChars 文件系统不允许的字符
var unsafeChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// FileName 输出文件名 "KIB-<电机名> <描述>.<ext>", 不安全字符替换为下划线
func FileName(motorName, description, ext string) string {
	s := "KIB-" + motorName
	if description = strings.TrimSpace(description); description != "" {
		s += " " + description
	}
	s = unsafeChars.Replace(s)
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		s += "." + ext
	}
	return s
}
