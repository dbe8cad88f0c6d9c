package main

import (
	"tradestat-ingestor/cmd/tradestat/cmd"
	"tradestat-ingestor/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	cmd.Execute()
}
