package registry

import (
	"encoding/json"
	"testing"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventTaskCreated, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"table":"tasks"}`)
	output, err := reg.Decode(enums.EventTaskCreated, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["table"] != "tasks" {
		t.Fatalf("unexpected output %+v", output)
	}

	if _, err := reg.Decode(enums.EventTaskCreated, 2, input); err == nil {
		t.Fatal("expected error for unregistered version")
	}
}
