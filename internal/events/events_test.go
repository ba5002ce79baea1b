package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	var p Publisher = &r
	if err := p.Publish(context.Background(), RoutingProjectCompleted, ProjectCompleted{ProjectID: 1}); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 1 || r.Events[0].RoutingKey != RoutingProjectCompleted {
		t.Errorf("unexpected events %+v", r.Events)
	}
}

func TestProjectCompletedPayload(t *testing.T) {
	body, err := json.Marshal(ProjectCompleted{ProjectID: 3, UserID: 9, Title: "Ship", Reward: 3})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"project_id":3,"user_id":9,"title":"Ship","reward":3}`
	if string(body) != want {
		t.Errorf("expected %s, got %s", want, body)
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), "x", nil); err != nil {
		t.Errorf("unexpected %v", err)
	}
}
