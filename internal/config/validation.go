package config

import "fmt"

// Validate checks the event testing configuration and returns a
// ConfigurationErrorCollection describing every problem found, or nil.
//
// The ip-echo section is not validated here: address discovery is only
// needed once the listener is queried, and it is reported at that point.
func (c Config) Validate() error {
	errs := NewConfigurationErrorCollection()
	et := c.EventTesting

	if et.Port < 1 || et.Port > 65535 {
		errs.Add(NewConfigurationErrorWithDetails("eventTesting.port", ErrorTypeInvalid,
			fmt.Sprintf("port %d is out of range", et.Port), "",
			[]string{"use a port between 1 and 65535"}))
	}
	if et.SettleTime < 0 {
		errs.Add(NewConfigurationError("eventTesting.settleTime", ErrorTypeInvalid, "settle time must not be negative"))
	}
	if et.Enabled && et.Result == "" {
		errs.Add(NewConfigurationError("eventTesting.result", ErrorTypeMissing, "a result path is required when event testing is enabled"))
	}
	if et.Retry.MaxAttempts < 1 {
		errs.Add(NewConfigurationError("eventTesting.retry.maxAttempts", ErrorTypeInvalid,
			fmt.Sprintf("maxAttempts must be at least 1, got %d", et.Retry.MaxAttempts)))
	}
	if et.Retry.Interval < 0 {
		errs.Add(NewConfigurationError("eventTesting.retry.interval", ErrorTypeInvalid, "retry interval must not be negative"))
	}
	if et.QueriesPerSecond < 0 {
		errs.Add(NewConfigurationError("eventTesting.queriesPerSecond", ErrorTypeInvalid, "queriesPerSecond must not be negative"))
	}
	if et.IPEcho.Port < 0 || et.IPEcho.Port > 65535 {
		errs.Add(NewConfigurationError("eventTesting.ipEcho.port", ErrorTypeInvalid,
			fmt.Sprintf("port %d is out of range", et.IPEcho.Port)))
	}

	if errs.HasErrors() {
		return *errs
	}
	return nil
}
