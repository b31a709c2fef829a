package engine

const (
	pipelineBackendName = "pipeline"
	cpuBackendName      = "cpu"
)

func init() {
	mustRegister(pipelineBackendName, &Device{
		Name:              pipelineBackendName,
		PreferredMultiple: 64,
		MaxBatch:          1 << 20,
		DefaultBatch:      16384,
		SeedWorkers:       2,
	})
	mustRegister(cpuBackendName, &Device{
		Name:              cpuBackendName,
		PreferredMultiple: 8,
		MaxBatch:          1 << 18,
		DefaultBatch:      4096,
		SeedWorkers:       1,
	})
}

func mustRegister(name string, device *Device) {
	if err := Register(name, device); err != nil {
		panic(err)
	}
}
