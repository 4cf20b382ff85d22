package model

import (
	"reflect"
	"testing"
)

func sys() Message             { return Message{Role: RoleSystem, Content: "be helpful"} }
func user(text string) Message { return Message{Role: RoleUser, Content: text} }
func reply(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}
func calls(ids ...string) Message {
	msg := Message{Role: RoleAssistant}
	for _, id := range ids {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{ID: id, Name: "glob_files", Arguments: `{"pattern":"*"}`})
	}
	return msg
}
func result(id string) Message {
	return Message{Role: RoleTool, ToolCallID: id, ToolName: "glob_files", Content: `["a.txt"]`}
}

func roles(history []Message) []string {
	out := make([]string, len(history))
	for i, msg := range history {
		out[i] = msg.Role
	}
	return out
}

func TestRepairHistory(t *testing.T) {
	tests := []struct {
		name  string
		input []Message
		want  []Message
	}{
		{
			name:  "empty history",
			input: []Message{},
			want:  []Message{},
		},
		{
			name:  "system only is untouched",
			input: []Message{sys()},
			want:  []Message{sys()},
		},
		{
			name:  "crash before tool result drops call and prompting user",
			input: []Message{sys(), user("list files"), calls("a1")},
			want:  []Message{sys()},
		},
		{
			name:  "plain exchange is unchanged",
			input: []Message{sys(), user("hi"), reply("hello")},
			want:  []Message{sys(), user("hi"), reply("hello")},
		},
		{
			name:  "answered round trip is unchanged",
			input: []Message{sys(), user("list"), calls("a1"), result("a1"), reply("one file")},
			want:  []Message{sys(), user("list"), calls("a1"), result("a1"), reply("one file")},
		},
		{
			name:  "partially answered turn is removed",
			input: []Message{sys(), user("hi"), reply("hello"), user("list"), calls("a1", "a2"), result("a1")},
			want:  []Message{sys(), user("hi"), reply("hello")},
		},
		{
			name:  "second step of a run interrupted",
			input: []Message{sys(), user("list"), calls("a1"), result("a1"), calls("a2")},
			want:  []Message{sys(), user("list"), calls("a1"), result("a1")},
		},
		{
			name:  "truncation point not preceded by user keeps earlier turns",
			input: []Message{sys(), user("hi"), reply("hello"), calls("a1"), reply("late")},
			want:  []Message{sys(), user("hi"), reply("hello")},
		},
		{
			name:  "two broken turns both removed",
			input: []Message{sys(), user("one"), calls("a1"), user("two"), calls("b1")},
			want:  []Message{sys()},
		},
		{
			name:  "orphan tool result is dropped",
			input: []Message{sys(), user("hi"), result("zz"), reply("hello")},
			want:  []Message{sys(), user("hi"), reply("hello")},
		},
		{
			name:  "duplicate answer is dropped",
			input: []Message{sys(), user("list"), calls("a1"), result("a1"), result("a1"), reply("done")},
			want:  []Message{sys(), user("list"), calls("a1"), result("a1"), reply("done")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RepairHistory(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("RepairHistory() roles = %v, want %v", roles(got), roles(tt.want))
			}

			again := RepairHistory(got)
			if !reflect.DeepEqual(again, got) {
				t.Errorf("repair is not idempotent: %v then %v", roles(got), roles(again))
			}

			if ids := unansweredIDs(got); len(ids) > 0 {
				t.Errorf("repaired history still has unanswered calls %v", ids)
			}
		})
	}
}

func unansweredIDs(history []Message) []string {
	answered := make(map[string]bool)
	for _, msg := range history {
		if msg.Role == RoleTool {
			answered[msg.ToolCallID] = true
		}
	}
	var ids []string
	for _, msg := range history {
		for _, call := range msg.ToolCalls {
			if !answered[call.ID] {
				ids = append(ids, call.ID)
			}
		}
	}
	return ids
}

func TestRepairHistoryDoesNotModifyInput(t *testing.T) {
	input := []Message{sys(), user("list files"), calls("a1")}
	RepairHistory(input)
	if len(input) != 3 || input[2].ToolCalls[0].ID != "a1" {
		t.Fatalf("input was modified: %v", roles(input))
	}
}

func TestSeedHistory(t *testing.T) {
	tests := []struct {
		name      string
		persisted []Message
		wantRoles []string
	}{
		{
			name:      "new thread",
			persisted: nil,
			wantRoles: []string{RoleSystem},
		},
		{
			name:      "stored system message is replaced by config prompt",
			persisted: []Message{{Role: RoleSystem, Content: "old prompt"}, user("hi"), reply("hello")},
			wantRoles: []string{RoleSystem, RoleUser, RoleAssistant},
		},
		{
			name:      "interrupted thread falls back to system only",
			persisted: []Message{user("list files"), calls("a1")},
			wantRoles: []string{RoleSystem},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SeedHistory("current prompt", tt.persisted)
			if !reflect.DeepEqual(roles(got), tt.wantRoles) {
				t.Fatalf("SeedHistory() roles = %v, want %v", roles(got), tt.wantRoles)
			}
			if got[0].Content != "current prompt" {
				t.Errorf("system prompt = %q, want %q", got[0].Content, "current prompt")
			}
		})
	}
}

func TestShouldGenerateTitle(t *testing.T) {
	tests := []struct {
		name    string
		history []Message
		want    bool
	}{
		{"first user message", []Message{sys(), user("hi")}, true},
		{"system only", []Message{sys()}, false},
		{"second user message", []Message{sys(), user("hi"), reply("hello"), user("again")}, false},
		{"missing system", []Message{user("hi"), user("again")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldGenerateTitle(tt.history); got != tt.want {
				t.Errorf("ShouldGenerateTitle() = %v, want %v", got, tt.want)
			}
		})
	}
}
