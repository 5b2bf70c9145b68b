package core

import "strings"

const complexTaskPrefix = "[复杂任务] "

var complexTaskKeywords = []string{
	// device control
	"拍照", "手电筒", "导航", "定位", "音乐", "播放", "音量",
	"photo", "flashlight", "navigation", "location", "music", "play", "volume",
	// actions
	"打开", "关闭", "设置", "调节", "开始", "停止",
	"open", "close", "set", "adjust", "start", "stop",
	// sequencing
	"和", "以及", "还有", "同时", "先", "然后", "接着",
	"and", "also", "then", "next", "after",
}

// isComplexRequest guesses whether input asks for several tool actions.
// Two distinct keyword hits, or an explicit mention of todos, qualify.
func isComplexRequest(input string) bool {
	lower := strings.ToLower(input)
	if strings.Contains(lower, "todo") || strings.Contains(lower, "任务") {
		return true
	}

	matches := 0
	for _, keyword := range complexTaskKeywords {
		if strings.Contains(lower, keyword) {
			matches++
			if matches >= 2 {
				return true
			}
		}
	}
	return false
}
