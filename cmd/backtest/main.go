package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"midas/config"
	"midas/domain/backtest"
	"midas/domain/pricing"
	"midas/infra/kafka"
)

func main() {
	var (
		pricesPath string
		fromKafka  bool
		maxTrades  int
		drain      time.Duration

		kind   string
		strike float64
		expiry float64
		rate   float64
		vol    float64
	)
	flag.StringVar(&pricesPath, "prices", "", "file holding the price series, whitespace separated")
	flag.BoolVar(&fromKafka, "kafka", false, "consume the price series from the trade topic instead")
	flag.IntVar(&maxTrades, "max", 0, "stop after this many trades from kafka, 0 for no cap")
	flag.DurationVar(&drain, "drain", 5*time.Second, "stop reading kafka after this long")
	flag.StringVar(&kind, "kind", "call", `option kind, "call" or "put"`)
	flag.Float64Var(&strike, "strike", 100, "strike price")
	flag.Float64Var(&expiry, "expiry", 1, "time to expiry in years")
	flag.Float64Var(&rate, "rate", 0.05, "continuously compounded risk-free rate")
	flag.Float64Var(&vol, "vol", 0.2, "annualized volatility")
	flag.Parse()

	optKind, err := parseKind(kind)
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}

	// ---------------- Price series ----------------

	var series []float64
	switch {
	case fromKafka:
		cfg := config.LoadFromEnv("")
		if !cfg.BroadcastEnabled() {
			log.Fatal("backtest: -kafka needs KAFKA_BROKERS")
		}
		feed := kafka.NewPriceFeed(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group)
		defer feed.Close()

		ctx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()

		series, err = feed.ReadPrices(ctx, maxTrades)
		if err != nil {
			log.Fatalf("backtest: read trade topic: %v", err)
		}
	case pricesPath != "":
		series, err = readPriceFile(pricesPath)
		if err != nil {
			log.Fatalf("backtest: read %s: %v", pricesPath, err)
		}
	default:
		fmt.Fprintln(os.Stderr, "backtest: need -prices <file> or -kafka")
		flag.Usage()
		os.Exit(2)
	}

	// ---------------- Strategy ----------------

	res, err := backtest.Run(series, backtest.Strategy{
		Kind:   optKind,
		Strike: strike,
		Expiry: expiry,
		Rate:   rate,
		Vol:    vol,
	})
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}

	fmt.Printf("strategy:     buy one %s (K=%v, T=%v, r=%v, vol=%v) below the series mean\n",
		optKind, strike, expiry, rate, vol)
	fmt.Printf("observations: %d\n", res.Observations)
	fmt.Printf("series mean:  %.4f\n", res.Mean)
	fmt.Printf("purchases:    %d\n", res.Purchases)
	fmt.Printf("total cost:   %.6f\n", res.Total)
}

func parseKind(s string) (pricing.OptionKind, error) {
	switch strings.ToLower(s) {
	case "call":
		return pricing.Call, nil
	case "put":
		return pricing.Put, nil
	}
	return 0, fmt.Errorf("unknown option kind %q", s)
}

// readPriceFile parses a whitespace-separated series. Blank lines and
// line tails starting with # are skipped.
func readPriceFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var prices []float64
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		for _, field := range strings.Fields(sc.Text()) {
			if strings.HasPrefix(field, "#") {
				break
			}
			p, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %q: %w", line, field, err)
			}
			prices = append(prices, p)
		}
	}
	return prices, sc.Err()
}
