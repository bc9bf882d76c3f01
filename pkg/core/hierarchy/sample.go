package hierarchy

// Sample returns the reference cluster: 100 GPUs split between a
// Development organization with two direct projects and a Production
// organization whose Analytics unit lends 30% to Machine Learning.
//
// Each call returns a fresh value.
func Sample() *Cluster {
	return &Cluster{
		ID:       "root-1",
		Name:     "GPU Cluster",
		TotalGPU: 100,
		Organizations: []*Organization{
			{
				ID:            "org-dev",
				Name:          "Development",
				AllocatedGPU:  20,
				BusinessUnits: []*BusinessUnit{},
				Projects: []*Project{
					{ID: "proj-a", Name: "ML-Training-A", AllocatedGPU: 8, CurrentUsage: 3.2},
					{ID: "proj-b", Name: "ML-Training-B", AllocatedGPU: 12, CurrentUsage: 0.8},
				},
			},
			{
				ID:           "org-prod",
				Name:         "Production",
				AllocatedGPU: 80,
				BusinessUnits: []*BusinessUnit{
					{
						ID:           "bu-analytics",
						Name:         "Analytics",
						AllocatedGPU: 35,
						Projects: []*Project{
							{ID: "proj-c", Name: "Customer-Analytics", AllocatedGPU: 20, CurrentUsage: 18.5},
							{ID: "proj-d", Name: "Sales-Forecast", AllocatedGPU: 15, CurrentUsage: 12.1},
						},
					},
					{
						ID:           "bu-ml",
						Name:         "Machine Learning",
						AllocatedGPU: 45,
						Projects: []*Project{
							{ID: "proj-e", Name: "Recommendation-Engine", AllocatedGPU: 25, CurrentUsage: 32.1},
							{ID: "proj-f", Name: "Image-Recognition", AllocatedGPU: 20, CurrentUsage: 26.3},
						},
					},
				},
				Projects: []*Project{},
				BorrowingRelations: []BorrowingRelation{
					{FromID: "bu-analytics", ToID: "bu-ml", BorrowedAmount: 30},
				},
			},
		},
	}
}
