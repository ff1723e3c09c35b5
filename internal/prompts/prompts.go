// Package prompts holds the instruction templates passed to the generation
// service. The template text is an opaque parameter of the system: the
// conversation core composes prompts from these templates but never
// interprets their content.
package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Set carries one template per generation call site.
type Set struct {
	FreeChat    string // S1: chat vs loggable-event decision
	LogConfirm  string // S2: draft confirmation dialogue
	FileRouter  string // retrieval: relevant log file selection
	UserProfile string // profile synthesis
}

// Defaults returns the built-in templates.
func Defaults() Set {
	return Set{
		FreeChat:    defaultFreeChat,
		LogConfirm:  defaultLogConfirm,
		FileRouter:  defaultFileRouter,
		UserProfile: defaultUserProfile,
	}
}

// Load returns Defaults with any template overridden by a matching file
// (free_chat.txt, log_confirm.txt, file_router.txt, user_profile.txt) found
// under dir. An empty dir means defaults only.
func Load(dir string) (Set, error) {
	set := Defaults()
	if dir == "" {
		return set, nil
	}
	overrides := []struct {
		name string
		dst  *string
	}{
		{"free_chat.txt", &set.FreeChat},
		{"log_confirm.txt", &set.LogConfirm},
		{"file_router.txt", &set.FileRouter},
		{"user_profile.txt", &set.UserProfile},
	}
	for _, o := range overrides {
		b, err := os.ReadFile(filepath.Join(dir, o.name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Set{}, fmt.Errorf("read prompt %s: %w", o.name, err)
		}
		*o.dst = string(b)
	}
	return set, nil
}

const defaultFreeChat = `你是一个私人日志助手。结合上面的对话上下文判断 <user_input> 中的内容：
如果用户描述了一件值得记录的事情（任务 tasks / 反馈 feedback / 事件 events / 目标 goals），
请起草一条简洁的日志，输出 JSON：{"type": "1-1", "content": "<日志草稿文本>"}。
否则正常聊天，输出 JSON：{"type": "1-2", "content": "<你的回复>"}。
只输出一个 JSON 对象，不要输出其他内容。`

const defaultLogConfirm = `当前正处于日志确认阶段，<log draft> 中是待确认的日志草稿。根据 <user_input> 判断：
用户确认保存：输出 {"type": "2-1", "content": ["<分类>/<文件名YYYY-MM-DD>.txt", "<最终日志文本>"]}，
分类只能是 tasks、feedback、events、goals 之一；
用户要求修改：输出 {"type": "2-2", "content": "<修改后的日志草稿>"}；
用户不想记录了：输出 {"type": "2-3", "content": "<你的回复>"}。
只输出一个 JSON 对象，不要输出其他内容。`

const defaultFileRouter = `你是日志检索路由。<file list> 中是按分类整理的历史日志文件名，
<user profile> 中是用户画像。请挑选与 <user_input> 相关的日志文件（可以为空），
输出 JSON：{"type": "3-1", "content": ["<分类>/<文件名>", ...]}。
只输出一个 JSON 对象，不要输出其他内容。`

const defaultUserProfile = `请根据 <log data> 中的全部历史日志，总结一份简洁的用户画像：
长期目标、近期关注、习惯偏好、值得注意的反馈。直接输出画像文本，不要输出 JSON。`
