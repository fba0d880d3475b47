package stream

import (
	"encoding/json"
	"fmt"

	"github.com/codeswap/codeswap/internal/sse"
)

// ParseChatEvent decodes one frame of a single/compare stream. It returns
// ok=false for frames whose payload is empty after trimming (nothing to
// emit). A structurally invalid payload is a hard error: silently dropping a
// terminal event would corrupt usage accounting downstream.
func ParseChatEvent(frame string) (ChatEvent, bool, error) {
	payload := sse.Payload(frame)
	if payload == "" {
		return ChatEvent{}, false, nil
	}
	var ev ChatEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ChatEvent{}, false, fmt.Errorf("decode chat event: %w", err)
	}
	if ev.Type == "" {
		return ChatEvent{}, false, fmt.Errorf("chat event missing type: %s", payload)
	}
	return ev, true, nil
}

// ParseCrewEvent decodes one frame of a crew stream with the same skip and
// failure semantics as ParseChatEvent.
func ParseCrewEvent(frame string) (CrewEvent, bool, error) {
	payload := sse.Payload(frame)
	if payload == "" {
		return CrewEvent{}, false, nil
	}
	var ev CrewEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return CrewEvent{}, false, fmt.Errorf("decode crew event: %w", err)
	}
	if ev.Type == "" {
		return CrewEvent{}, false, fmt.Errorf("crew event missing type: %s", payload)
	}
	return ev, true, nil
}
