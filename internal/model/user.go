package model

// UserRecord 用户目录中的一行
type UserRecord struct {
	// Row 在表格中的行下标（0 为表头）
	Row    int
	Name   string
	Phone  string
	Email  string
	Fields map[string]string
}

// FieldUpdate 单元格更新结果
type FieldUpdate struct {
	Row      int
	Col      int
	Column   string
	OldValue string
	NewValue string
}

// ActionResult 动作执行结果：播报给用户的确认文本与需要写回的会话变量
type ActionResult struct {
	Message      string
	SessionPatch map[string]string
}
