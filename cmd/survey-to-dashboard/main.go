package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	lib "github.com/negev-urban-lab/survey-to-dashboard"
)

func main() {
	mode := flag.String("mode", "run", "run|serve|inspect")
	refresh := flag.Bool("refresh", false, "run the pipeline before serving (serve mode)")
	file := flag.String("file", "", "produced CSV to inspect (inspect mode)")
	trips := flag.String("trips", "", "trip workbook path (overrides config)")
	boundaries := flag.String("boundaries", "", "boundary archive path (overrides config)")
	pois := flag.String("pois", "", "POI coordinate CSV path (overrides config)")
	out := flag.String("out", "", "output directory (overrides config)")
	flag.Parse()

	lib.InitLogging()
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	if err := lib.LoadAppConfig(); err != nil {
		panic(err)
	}
	if *trips != "" {
		lib.Config.Inputs.Trips = *trips
	}
	if *boundaries != "" {
		lib.Config.Inputs.Boundaries = *boundaries
	}
	if *pois != "" {
		lib.Config.Inputs.POICoordinates = *pois
	}
	if *out != "" {
		lib.Config.Output.Dir = *out
	}

	switch *mode {
	case "run":
		rep, err := lib.RunPipeline()
		if err != nil {
			panic(err)
		}
		fmt.Printf("%d rows -> %d records, %d output files in %s\n",
			rep.Load.Rows, rep.Normalize.Records, rep.OutputFiles, rep.Took.Round(time.Millisecond))
	case "serve":
		collector := lib.NewCollector()
		if *refresh {
			rep, err := lib.RunPipeline()
			if err != nil {
				panic(err)
			}
			collector.ObserveRun(rep, rep.Took)
		}
		lib.StartServer(collector)
		lib.HandleGracefulShutdown()
	case "inspect":
		if *file == "" {
			panic("inspect mode requires -file")
		}
		if err := lib.Inspect(*file); err != nil {
			panic(err)
		}
	default:
		panic("unknown mode")
	}
}
