package opr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func imageSources(t *testing.T, n int) []ImageSource {
	t.Helper()

	sources := make([]ImageSource, n)
	for i := range sources {
		sources[i] = BytesImage(fmt.Sprintf("gambar%d.png", i+1), pngBytes(t, i+1, 1))
	}
	return sources
}

func TestState_Update(t *testing.T) {
	t.Parallel()

	st := NewState()
	if err := st.Update(FieldNamaProgram, "Hari Kantin"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := st.Update(FieldTempat, 7); !errors.Is(err, ErrFieldType) {
		t.Errorf("Update(wrong type) error = %v, want ErrFieldType", err)
	}

	snap := st.Record()
	if snap.NamaProgram != "Hari Kantin" {
		t.Errorf("NamaProgram = %q", snap.NamaProgram)
	}

	snap.NamaProgram = "diubah"
	if st.Record().NamaProgram != "Hari Kantin" {
		t.Error("Record() must return a snapshot")
	}
}

// ---------------------------------------------------------------------------
// TestState_AddImages - Capacity limit and batch commit
// ---------------------------------------------------------------------------

func TestState_AddImages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		existing  int
		batch     int
		wantErr   error
		wantCount int
	}{
		{name: "empty batch", existing: 2, batch: 0, wantCount: 2},
		{name: "fills to limit", existing: 0, batch: 6, wantCount: 6},
		{name: "adds to existing", existing: 4, batch: 2, wantCount: 6},
		{name: "one over limit rejects batch", existing: 4, batch: 3, wantErr: ErrCapacityExceeded, wantCount: 4},
		{name: "full state rejects single", existing: 6, batch: 1, wantErr: ErrCapacityExceeded, wantCount: 6},
		{name: "oversized batch on empty state", existing: 0, batch: 7, wantErr: ErrCapacityExceeded, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := NewState()
			if tt.existing > 0 {
				if _, err := st.AddImages(context.Background(), imageSources(t, tt.existing)); err != nil {
					t.Fatalf("setup: %v", err)
				}
			}
			before := st.Record().Images

			res, err := st.AddImages(context.Background(), imageSources(t, tt.batch))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddImages() error = %v, want %v", err, tt.wantErr)
			}
			if got := st.ImageCount(); got != tt.wantCount {
				t.Errorf("ImageCount() = %d, want %d", got, tt.wantCount)
			}
			if tt.wantErr != nil {
				if res.Added != 0 {
					t.Errorf("Added = %d on rejected batch", res.Added)
				}
				after := st.Record().Images
				for i := range before {
					if after[i] != before[i] {
						t.Errorf("image %d changed on rejected batch", i)
					}
				}
			}
		})
	}
}

func TestState_AddImages_PartialFailure(t *testing.T) {
	t.Parallel()

	st := NewState()
	sources := []ImageSource{
		BytesImage("a.png", pngBytes(t, 1, 1)),
		BytesImage("rosak.png", []byte("rosak")),
		BytesImage("c.png", pngBytes(t, 3, 1)),
	}

	res, err := st.AddImages(context.Background(), sources)
	if err != nil {
		t.Fatalf("AddImages() error = %v", err)
	}
	if res.Added != 2 || len(res.Failed) != 1 {
		t.Fatalf("AddImages() = %+v, want 2 added and 1 failed", res)
	}

	imgs := st.Record().Images
	want := []ImageSource{sources[0], sources[2]}
	for i, src := range want {
		uri, _ := ImageDecoder{}.Decode(context.Background(), []ImageSource{src})
		if imgs[i] != uri[0] {
			t.Errorf("image %d out of order", i)
		}
	}
}

func TestState_AddImages_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := NewState()
	if _, err := st.AddImages(ctx, imageSources(t, 2)); !errors.Is(err, context.Canceled) {
		t.Errorf("AddImages() error = %v, want context.Canceled", err)
	}
	if st.ImageCount() != 0 {
		t.Error("canceled batch must not commit")
	}
}

func TestState_AddImages_ConcurrentBatches(t *testing.T) {
	t.Parallel()

	st := NewState()
	batch := imageSources(t, 3)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.AddImages(context.Background(), batch)
		}()
	}
	wg.Wait()

	if n := st.ImageCount(); n > MaxImages || n%3 != 0 {
		t.Errorf("ImageCount() = %d, want whole batches within the limit", n)
	}
}

func TestState_RemoveImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		index  int
		remain []int // original positions left, in order
	}{
		{name: "first", index: 0, remain: []int{1, 2}},
		{name: "middle", index: 1, remain: []int{0, 2}},
		{name: "last", index: 2, remain: []int{0, 1}},
		{name: "negative is ignored", index: -1, remain: []int{0, 1, 2}},
		{name: "past end is ignored", index: 3, remain: []int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := NewState()
			if _, err := st.AddImages(context.Background(), imageSources(t, 3)); err != nil {
				t.Fatal(err)
			}
			orig := st.Record().Images

			st.RemoveImage(tt.index)

			got := st.Record().Images
			if len(got) != len(tt.remain) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.remain))
			}
			for i, pos := range tt.remain {
				if got[i] != orig[pos] {
					t.Errorf("images[%d] should be original %d", i, pos)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestState_Generate - Generation gate and in-progress flag
// ---------------------------------------------------------------------------

func TestState_Generate_RequiresName(t *testing.T) {
	t.Parallel()

	st := NewState()
	gen := newBlockingGenerator()
	close(gen.release)

	if _, err := st.Generate(context.Background(), gen); !errors.Is(err, ErrMissingProgramName) {
		t.Errorf("Generate() error = %v, want ErrMissingProgramName", err)
	}
	if st.Generating() {
		t.Error("Generating() = true after refused generation")
	}
}

func TestState_Generate_RefusesConcurrent(t *testing.T) {
	t.Parallel()

	st := NewState()
	_ = st.Update(FieldNamaProgram, "Sambutan Merdeka")
	gen := newBlockingGenerator()

	done := make(chan error, 1)
	go func() {
		_, err := st.Generate(context.Background(), gen)
		done <- err
	}()
	<-gen.started

	if !st.Generating() {
		t.Error("Generating() = false during generation")
	}
	if _, err := st.Generate(context.Background(), gen); !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("second Generate() error = %v, want ErrGenerationInProgress", err)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	if st.Generating() {
		t.Error("Generating() = true after generation finished")
	}
}

func TestState_Generate_ClearsFlag(t *testing.T) {
	t.Parallel()

	t.Run("on error", func(t *testing.T) {
		t.Parallel()

		st := NewState()
		_ = st.Update(FieldNamaProgram, "Program")
		gen := newBlockingGenerator()
		gen.err = ErrCapture
		close(gen.release)

		if _, err := st.Generate(context.Background(), gen); !errors.Is(err, ErrCapture) {
			t.Errorf("error = %v, want ErrCapture", err)
		}
		if st.Generating() {
			t.Error("flag left set after error")
		}
		if st.Record().NamaProgram != "Program" {
			t.Error("record changed by failed generation")
		}
	})

	t.Run("on panic", func(t *testing.T) {
		t.Parallel()

		st := NewState()
		_ = st.Update(FieldNamaProgram, "Program")
		gen := newBlockingGenerator()
		gen.panics = true
		close(gen.release)

		func() {
			defer func() { _ = recover() }()
			_, _ = st.Generate(context.Background(), gen)
		}()
		if st.Generating() {
			t.Error("flag left set after panic")
		}
	})
}
