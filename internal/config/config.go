package config

const (
	DefaultTimeZone = "America/Caracas"

	// BCV rate sources, tried in rotation by the refresh job.
	DefaultBCVRateURL    = "https://www.bcv.org.ve"
	DefaultBCVMirrorURL  = "https://bcv-api.rafnixg.dev/rates/"
	DefaultRateSchedule  = "*/10 * * * *"
	RateRequestTimeoutMS = 15000

	// Transaction insert batch for bulk upload persistence.
	BatchSize = 1000
)
