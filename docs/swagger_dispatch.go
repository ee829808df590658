package docs

// @title           Fleet Dispatch API
// @version         1.0
// @description     Dispatch core for a delivery fleet: order intake, assignment passes that partition pending orders among available vehicles and sequence per-vehicle routes, driver shift lifecycle with per-stop status transitions, and live location tracking over WebSockets.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
