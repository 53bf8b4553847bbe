/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ids

import "testing"

func TestSnowflake_MonotonicAndUnique(t *testing.T) {
	snow, err := NewSnowflake(1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[int64]bool)
	var prev int64
	for i := 0; i < 5000; i++ {
		id := snow.Generate()
		if id <= prev {
			t.Fatalf("id %d not increasing after %d", id, prev)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
		prev = id
	}
}

func TestSnowflake_RejectsOutOfRangeIDs(t *testing.T) {
	if _, err := NewSnowflake(-1, 0, 0); err == nil {
		t.Error("expected error for negative datacenter id")
	}
	if _, err := NewSnowflake(0, maxWorker+1, 0); err == nil {
		t.Error("expected error for worker id out of range")
	}
}

func TestObjectID_UniqueAndHexLength(t *testing.T) {
	a := NewObjectID()
	b := NewObjectID()
	if a == b {
		t.Error("two consecutive ObjectIDs collided")
	}
	if len(a.Hex()) != 24 {
		t.Errorf("hex length = %d, want 24", len(a.Hex()))
	}
}
