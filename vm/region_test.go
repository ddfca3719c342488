package vm

import "testing"

func TestAllocateAndFree(t *testing.T) {
	t.Run("allocate rounds up to reserve granularity", func(t *testing.T) {
		r, err := Allocate(1)
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		defer r.Free()

		if r.Size()%ReserveGranularity != 0 {
			t.Errorf("region size %d is not a multiple of ReserveGranularity %d", r.Size(), ReserveGranularity)
		}
		if r.Size() < ReserveGranularity {
			t.Errorf("region size %d smaller than ReserveGranularity %d", r.Size(), ReserveGranularity)
		}
	})

	t.Run("allocated memory is writable", func(t *testing.T) {
		r, err := Allocate(CommitGranularity)
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		defer r.Free()

		r.Base[0] = 0xAB
		if r.Base[0] != 0xAB {
			t.Errorf("expected write to stick")
		}
	})

	t.Run("free is idempotent", func(t *testing.T) {
		r, err := Allocate(CommitGranularity)
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if err := r.Free(); err != nil {
			t.Fatalf("first free: %v", err)
		}
		if err := r.Free(); err != nil {
			t.Fatalf("second free should be a no-op: %v", err)
		}
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		if _, err := Allocate(0); err == nil {
			t.Errorf("expected error allocating zero bytes")
		}
	})
}

func TestReserveCommitDecommit(t *testing.T) {
	r, err := Reserve(4 * CommitGranularity)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	defer r.Free()

	if err := r.Commit(0, CommitGranularity); err != nil {
		t.Fatalf("commit: %v", err)
	}
	r.Base[0] = 7
	if r.Base[0] != 7 {
		t.Errorf("committed page did not accept a write")
	}

	if err := r.Decommit(0, CommitGranularity); err != nil {
		t.Fatalf("decommit: %v", err)
	}

	t.Run("commit rejects misaligned range", func(t *testing.T) {
		if err := r.Commit(1, CommitGranularity); err == nil {
			t.Errorf("expected misaligned commit to fail")
		}
	})
}

func TestExpandBackExtend(t *testing.T) {
	r, err := Allocate(CommitGranularity)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	defer r.Free()

	r.Base[0] = 0x42
	origBase := sliceAddr(r.Base)

	result, err := Expand(r, 4*CommitGranularity, 0, len(r.Base), AllocCommit, Fixed)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	if result.Method == ExpandFailed {
		t.Skip("platform could not satisfy an in-place back extension in this environment")
	}

	if result.Method != ExpandBackExtended {
		t.Fatalf("expected ExpandBackExtended, got %v", result.Method)
	}
	if sliceAddr(result.Region.Base) != origBase {
		t.Errorf("back extension must not relocate the base address")
	}
	if result.Region.Base[0] != 0x42 {
		t.Errorf("back extension must preserve existing bytes")
	}
}

func TestExpandRelocate(t *testing.T) {
	r, err := Allocate(CommitGranularity)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	copy(r.Base, []byte("hello"))

	result, err := Expand(r, 16*CommitGranularity, 0, 5, AllocCommit, Moveable)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if result.Method == ExpandFailed {
		t.Fatalf("moveable expand must not fail outright")
	}

	if string(result.Region.Base[:5]) != "hello" {
		t.Errorf("relocation must preserve the used prefix, got %q", result.Region.Base[:5])
	}
	result.Region.Free()
}

func TestExpandRejectsNonGrowingRequest(t *testing.T) {
	r, err := Allocate(CommitGranularity)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	defer r.Free()

	if _, err := Expand(r, len(r.Base), 0, 0, AllocCommit, Moveable); err == nil {
		t.Errorf("expected error when neither back nor front target exceeds the current size")
	}
}

func TestAllocateFixedRejectsOverlap(t *testing.T) {
	r, err := Allocate(2 * ReserveGranularity)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	defer r.Free()

	addr := sliceAddr(r.Base)
	if _, err := AllocateFixed(addr, ReserveGranularity, AllocCommit); err == nil {
		t.Errorf("expected AllocateFixed to refuse an address already mapped")
	}
}
