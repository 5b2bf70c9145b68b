package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagTableMatching(t *testing.T) {
	table, err := NewTagTable(DefaultToolCategories)
	require.NoError(t, err)

	tests := map[string]string{
		"music_player":       "[子智能体-音乐助手]",
		"Music":              "[子智能体-音乐助手]",
		"calculator":         "[子智能体-计算器]",
		"camera":             "[子智能体-监控]",
		"navigation_route":   "[子智能体-导航]",
		"flashlight":         DefaultAgentTag,
		"":                   DefaultAgentTag,
		"write_todos":        DefaultAgentTag,
		"SMART_CAMERA_FRONT": "[子智能体-监控]",
	}
	for name, want := range tests {
		require.Equal(t, want, table.Tag(name), name)
	}
}

func TestTagTableValidation(t *testing.T) {
	_, err := NewTagTable([]ToolCategory{{Match: " ", Tag: "[x]"}})
	require.Error(t, err)

	_, err = NewTagTable([]ToolCategory{{Match: "voice", Tag: "voice"}})
	require.Error(t, err)

	_, err = NewTagTable([]ToolCategory{{Match: "Voice", Tag: "[a]"}, {Match: "voice", Tag: "[b]"}})
	require.Error(t, err)

	table, err := NewTagTable([]ToolCategory{{Match: "Voice", Tag: "[子智能体-语音]"}})
	require.NoError(t, err)
	require.Equal(t, "[子智能体-语音]", table.Tag("voice"))
}

func TestIsComplexRequest(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"你好", false},
		{"拍照", false},
		{"先打开手电筒然后拍照", true},
		{"play music", true},
		{"帮我列个任务清单", true},
		{"update my TODO", true},
		{"Open the door", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, isComplexRequest(tt.input), tt.input)
	}
}

func TestParseTodosNormalisesFields(t *testing.T) {
	todos, ok := parseTodos(map[string]any{"todos": []any{
		map[string]any{"id": float64(3), "title": "买咖啡"},
		map[string]any{"id": "4", "content": "回家", "status": "completed"},
		"garbage",
	}})
	require.True(t, ok)
	require.Len(t, todos, 2)
	require.Equal(t, "3", todos[0].ID)
	require.Equal(t, "买咖啡", todos[0].Content)
	require.Equal(t, "pending", string(todos[0].Status))
	require.Equal(t, "回家", todos[1].Title)

	_, ok = parseTodos(map[string]any{"items": []any{}})
	require.False(t, ok)
	_, ok = parseTodos("nope")
	require.False(t, ok)
}
