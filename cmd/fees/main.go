// Package main provides the fees binary: it prints a transaction fee summary
// for a set of trade, withdrawal, and storage amounts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mudkit/atlas/internal/fees"
)

func main() {
	trade := flag.Float64("trade", 0, "trade amount in gold")
	withdrawal := flag.Float64("withdrawal", 0, "withdrawal amount in gold")
	storage := flag.Float64("storage", 0, "stored value in gold")
	tradeRate := flag.Float64("trade-rate", fees.DefaultTradeRate, "trade fee rate")
	withdrawalRate := flag.Float64("withdrawal-rate", fees.DefaultWithdrawalRate, "withdrawal fee rate")
	storageRate := flag.Float64("storage-rate", fees.DefaultStorageRate, "storage fee rate")
	flag.Parse()

	if *trade < 0 || *withdrawal < 0 || *storage < 0 {
		fmt.Fprintln(os.Stderr, "amounts must be non-negative")
		os.Exit(1)
	}

	rates := fees.Rates{
		Trade:      *tradeRate,
		Withdrawal: *withdrawalRate,
		Storage:    *storageRate,
	}

	summary := rates.Summarize(*trade, *withdrawal, *storage)
	out, err := summary.JSON()
	if err != nil {
		log.Fatalf("encoding summary: %v", err)
	}
	fmt.Println(out)
}
