package engine

import "testing"

func BenchmarkRunnerStep(b *testing.B) {
	ctx, err := NewContext(true)
	if err != nil {
		b.Fatal(err)
	}
	search, err := ctx.Prepare([]string{"AAAAA"})
	if err != nil {
		b.Fatal(err)
	}

	runner := search.Runner(1024, 0, 0, nil)
	defer runner.Close()

	total := 0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		processed, _ := runner.Step()
		total += processed
	}
	b.StopTimer()

	if b.Elapsed() > 0 {
		b.ReportMetric(float64(total)/b.Elapsed().Seconds(), "keys/s")
	}
}
