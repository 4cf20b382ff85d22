package model

import "time"

// RepairHistory removes the unanswerable tail of a history: the latest
// assistant turn with tool calls that never got a result, everything after
// it, and the user message that prompted it. It never fabricates tool
// results. Tool messages answering no earlier call are dropped as well.
//
// A history that is already valid is returned as is.
func RepairHistory(history []Message) []Message {
	repaired := history
	for {
		next, truncated := truncateUnanswered(repaired)
		if !truncated {
			break
		}
		repaired = next
	}
	return dropOrphanResults(repaired)
}

func truncateUnanswered(history []Message) ([]Message, bool) {
	emitted := make(map[string]bool)
	answered := make(map[string]bool)
	for _, msg := range history {
		switch msg.Role {
		case RoleAssistant:
			for _, call := range msg.ToolCalls {
				emitted[call.ID] = true
			}
		case RoleTool:
			// Only results that follow their call count as answers.
			if emitted[msg.ToolCallID] {
				answered[msg.ToolCallID] = true
			}
		}
	}

	unanswered := make(map[string]bool)
	for id := range emitted {
		if !answered[id] {
			unanswered[id] = true
		}
	}
	if len(unanswered) == 0 {
		return history, false
	}

	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != RoleAssistant || !hasAnyCall(msg.ToolCalls, unanswered) {
			continue
		}
		cut := i
		if cut > 0 && history[cut-1].Role == RoleUser {
			cut--
		}
		return history[:cut:cut], true
	}
	return history, false
}

func hasAnyCall(calls []ToolCall, ids map[string]bool) bool {
	for _, call := range calls {
		if ids[call.ID] {
			return true
		}
	}
	return false
}

// dropOrphanResults removes tool messages whose call id was not emitted by an
// earlier assistant message, and second answers to the same call.
func dropOrphanResults(history []Message) []Message {
	seen := make(map[string]bool)
	answered := make(map[string]bool)
	orphaned := false
	for _, msg := range history {
		switch msg.Role {
		case RoleAssistant:
			for _, call := range msg.ToolCalls {
				seen[call.ID] = true
			}
		case RoleTool:
			if !seen[msg.ToolCallID] || answered[msg.ToolCallID] {
				orphaned = true
			}
			answered[msg.ToolCallID] = true
		}
	}
	if !orphaned {
		return history
	}

	seen = make(map[string]bool)
	answered = make(map[string]bool)
	out := make([]Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case RoleAssistant:
			for _, call := range msg.ToolCalls {
				seen[call.ID] = true
			}
		case RoleTool:
			if !seen[msg.ToolCallID] || answered[msg.ToolCallID] {
				continue
			}
			answered[msg.ToolCallID] = true
		}
		out = append(out, msg)
	}
	return out
}

// RepairStored repairs a thread's persisted messages and reports whether
// anything was removed. The store should be rewritten with the result so
// later appends don't land behind a tail the next load would cut away.
func RepairStored(persisted []Message) ([]Message, bool) {
	kept := make([]Message, 0, len(persisted))
	for _, msg := range persisted {
		if msg.Role != RoleSystem {
			kept = append(kept, msg)
		}
	}
	repaired := RepairHistory(kept)
	return repaired, len(repaired) != len(persisted)
}

// SeedHistory builds the working history for a thread: the configured system
// prompt followed by the repaired persisted messages.
func SeedHistory(systemPrompt string, persisted []Message) []Message {
	history := make([]Message, 0, len(persisted)+1)
	history = append(history, Message{Role: RoleSystem, Content: systemPrompt, Timestamp: time.Now()})
	for _, msg := range persisted {
		if msg.Role == RoleSystem {
			continue
		}
		history = append(history, msg)
	}

	repaired := RepairHistory(history)
	if len(repaired) == 0 {
		return history[:1]
	}
	return repaired
}

// ShouldGenerateTitle reports whether history holds exactly the system
// prompt and the thread's first user message.
func ShouldGenerateTitle(history []Message) bool {
	return len(history) == 2 && history[0].Role == RoleSystem && history[1].Role == RoleUser
}
