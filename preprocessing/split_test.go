package preprocessing

import (
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTrainTestSplitSizes(t *testing.T) {
	tests := []struct {
		n         int
		testSize  float64
		wantTrain int
		wantTest  int
	}{
		{1000, 0.2, 800, 200},
		{10, 0.2, 8, 2},
		{11, 0.2, 8, 3}, // ceil(2.2) = 3
		{5, 0.5, 2, 3},
		{2, 0.2, 1, 1},
	}

	for _, tt := range tests {
		train, test, err := TrainTestSplit(tt.n, tt.testSize, 42)
		if err != nil {
			t.Fatalf("n=%d: %v", tt.n, err)
		}
		if len(train) != tt.wantTrain || len(test) != tt.wantTest {
			t.Errorf("n=%d size=%v: got %d/%d, want %d/%d",
				tt.n, tt.testSize, len(train), len(test), tt.wantTrain, tt.wantTest)
		}
	}
}

func TestTrainTestSplitPartition(t *testing.T) {
	train, test, err := TrainTestSplit(100, 0.2, 42)
	if err != nil {
		t.Fatal(err)
	}

	all := append(append([]int(nil), train...), test...)
	sort.Ints(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("rows are not a partition of 0..99: index %d holds %d", i, v)
		}
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	train1, test1, _ := TrainTestSplit(1000, 0.2, 42)
	train2, test2, _ := TrainTestSplit(1000, 0.2, 42)
	for i := range test1 {
		if test1[i] != test2[i] {
			t.Fatalf("test rows differ at %d", i)
		}
	}
	for i := range train1 {
		if train1[i] != train2[i] {
			t.Fatalf("train rows differ at %d", i)
		}
	}

	_, test3, _ := TrainTestSplit(1000, 0.2, 7)
	same := true
	for i := range test1 {
		if test1[i] != test3[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced the same test rows")
	}
}

func TestTrainTestSplitErrors(t *testing.T) {
	for _, size := range []float64{0, 1, -0.1, 1.5} {
		if _, _, err := TrainTestSplit(10, size, 42); err == nil {
			t.Errorf("test_size=%v should be rejected", size)
		}
	}
	if _, _, err := TrainTestSplit(1, 0.2, 42); err == nil {
		t.Error("a single row cannot be split")
	}
}

func TestSelectRows(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})
	got := SelectRows(m, []int{2, 0})
	want := mat.NewDense(2, 2, []float64{5, 6, 1, 2})
	if !mat.Equal(got, want) {
		t.Errorf("SelectRows = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}

	ints := SelectInts([]int{10, 20, 30}, []int{1, 1, 2})
	if ints[0] != 20 || ints[1] != 20 || ints[2] != 30 {
		t.Errorf("SelectInts = %v", ints)
	}
}
