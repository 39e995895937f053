package main

import (
	"context"

	"uteconsumo-backend/cmd/uteconsumo/commands"
	"uteconsumo-backend/lib/serviceutil"
	"uteconsumo-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	tel, err := telemetry.SetupFromEnv(ctx, "uteconsumo")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
