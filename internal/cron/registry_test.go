package cron

import "testing"

func TestRegistryKeepsOrderAndDropsNil(t *testing.T) {
	a := &testJob{name: "a"}
	b := &testJob{name: "b"}
	registry := NewRegistry(a, nil)
	registry.Register(nil)
	registry.Register(b)

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != a || jobs[1] != b {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}
