package contracts

// Exchanges
const (
	ExchangePortalTopic = "portal_topic"
)

// Queues
const (
	QueuePortalActivity = "portal_activity"
)

// Routing patterns
const (
	RoutePortalPrefix  = "portal."   // {event}
	RoutePortalBinding = "portal.#"
)

// Header carrying the session token on authenticated calls.
const HeaderSessionToken = "X-Session-Token"

// Header carrying the per-call request id.
const HeaderRequestID = "X-Request-ID"

// Backend endpoints, relative to the configured API base.
const (
	PathSession         = "/auth/session"
	PathLogin           = "/auth/login"
	PathVerifyOtp       = "/auth/verify-otp"
	PathRegisterRequest = "/drivers/register/request-otp"
	PathRegisterVerify  = "/drivers/register/verify"
	PathTripCount       = "/drivers/trip-count"
	PathCheckPlate      = "/drivers/check-plate"
	PathChangeCar       = "/drivers/change-car"
	PathCarBrands       = "/drivers/car-brands"
	PathLeaderboard     = "/leaderboard"
	PathCampaign        = "/campaign"
)
