package model

var defaultServices = map[string][]ServiceOffering{
	CategoryPlumbing: {
		{Name: "Emergency Leak Repair", Description: "Fix urgent leaks and pipe issues", Price: 800},
		{Name: "Drain Cleaning", Description: "Unclog drains and sewers", Price: 500},
		{Name: "Fixture Installation", Description: "Install sinks, faucets, toilets", Price: 1000},
	},
	CategoryElectrical: {
		{Name: "Wiring Repair", Description: "Fix electrical wiring issues", Price: 1200},
		{Name: "Outlet Installation", Description: "Install new electrical outlets", Price: 600},
		{Name: "Light Fixture Setup", Description: "Install ceiling lights and fixtures", Price: 800},
	},
	CategoryCleaning: {
		{Name: "Deep Cleaning", Description: "Thorough cleaning of entire space", Price: 1500},
		{Name: "Regular Cleaning", Description: "Standard cleaning service", Price: 800},
		{Name: "Move-in/Move-out", Description: "Cleaning for moving situations", Price: 2000},
	},
	CategoryCarpentry: {
		{Name: "Furniture Repair", Description: "Fix broken furniture", Price: 900},
		{Name: "Custom Cabinet", Description: "Build custom cabinets", Price: 3000},
		{Name: "Door Installation", Description: "Install or repair doors", Price: 1500},
	},
}

var generalService = ServiceOffering{Name: "General Service", Description: "Basic service offering", Price: 500}

// DefaultServices returns a fresh copy of the starter catalogue for category.
// Categories without a catalogue get a single general service.
func DefaultServices(category string) []ServiceOffering {
	src, ok := defaultServices[category]
	if !ok {
		return []ServiceOffering{generalService}
	}
	out := make([]ServiceOffering, len(src))
	copy(out, src)
	return out
}
