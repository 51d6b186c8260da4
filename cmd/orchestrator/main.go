package main

import (
	"os"

	_ "github.com/JEMeyer/ai-maestro/docs/swagger" // Import generated swagger docs
)

// @title AI Maestro API
// @version 1.0
// @description Control plane that deploys vLLM model workers onto a fleet of GPU servers and keeps the router in sync
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@ai-maestro.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3000
// @BasePath /

// @schemes http https
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
