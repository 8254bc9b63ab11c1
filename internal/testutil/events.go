package testutil

import (
	"context"
	"encoding/json"
	"sync"
)

type Event struct {
	Topic string
	Key   string
	Body  map[string]any
}

// Events records published events in memory.
type Events struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (e *Events) PublishEvent(_ context.Context, topic, key string, event any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	e.Events = append(e.Events, Event{Topic: topic, Key: key, Body: body})
	return nil
}

func (e *Events) Types(topic string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []string
	for _, ev := range e.Events {
		if ev.Topic == topic {
			t, _ := ev.Body["type"].(string)
			out = append(out, t)
		}
	}
	return out
}
