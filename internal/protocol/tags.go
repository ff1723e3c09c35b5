package protocol

// Prompt slot wrappers. The instruction templates (internal/prompts) refer
// to these tags by name; the tag text is part of the prompt contract with
// the generation service, not of any wire format.

func UserTag(s string) string { return "<user_input>" + s + "</user_input>" }

func DraftTag(s string) string { return "<log draft>" + s + "</log draft>" }

func LogDataTag(s string) string {
	return "<log data>这是用户一部分的历史日志数据：" + s + "</log data>"
}

func FileListTag(s string) string { return "<file list>" + s + "</file list>" }

func ProfileTag(s string) string { return "<user profile>" + s + "</user profile>" }

func DateTag(s string) string { return "<current_date>" + s + "</current_date>" }
