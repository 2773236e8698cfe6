package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vending/internal/common"
	vendingNet "vending/internal/net"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// 1. CLI Parameter Parsing
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the vending server")
	action := flag.String("action", "balance", "Action to perform: ['insert', 'select', 'stock', 'coins', 'balance']")
	coinsStr := flag.String("coins", "", "Comma-separated coins to insert first (e.g. 5.00,2.00,0.50)")
	slot := flag.Uint("slot", 0, "Product slot for 'select' and 'stock'")
	flag.Parse()

	coins, err := parseCoins(*coinsStr)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -coins")
	}
	if *slot > 0xFFFF {
		log.Fatal().Uint("slot", *slot).Msg("slot out of range")
	}

	// Connect to Server
	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatal().Err(err).Str("server", *serverAddr).Msg("failed to connect to server")
	}
	defer conn.Close()

	var messages []vendingNet.Message
	if len(coins) > 0 {
		messages = append(messages, vendingNet.NewInsertCoinsMessage(coins...))
	}

	// Execute Action
	switch strings.ToLower(*action) {
	case "insert":
		if len(coins) == 0 {
			log.Fatal().Msg("-coins is required for insert")
		}
	case "select":
		messages = append(messages, vendingNet.NewSelectProductMessage(uint16(*slot)))
	case "stock":
		messages = append(messages, vendingNet.NewQueryStockMessage(uint16(*slot)))
	case "coins":
		messages = append(messages, vendingNet.BaseMessage{TypeOf: vendingNet.QueryCoins})
	case "balance":
		messages = append(messages, vendingNet.BaseMessage{TypeOf: vendingNet.Heartbeat})
	default:
		log.Fatal().Str("action", *action).Msg("unknown action")
	}

	for _, message := range messages {
		report, err := roundTrip(conn, message)
		if err != nil {
			log.Fatal().Err(err).Msg("request failed")
		}
		fmt.Println(report)
	}
}

// parseCoins splits a comma-separated string into coin amounts.
func parseCoins(input string) ([]common.Money, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	var result []common.Money
	for _, p := range strings.Split(input, ",") {
		coin, err := common.ParseMoney(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		result = append(result, coin)
	}
	return result, nil
}

// roundTrip sends one message and waits for its report.
func roundTrip(conn net.Conn, message vendingNet.Message) (vendingNet.Report, error) {
	buf, err := message.Serialize()
	if err != nil {
		return vendingNet.Report{}, err
	}
	if err := vendingNet.WriteFrame(conn, buf); err != nil {
		return vendingNet.Report{}, fmt.Errorf("unable to send message: %w", err)
	}
	frame, err := vendingNet.ReadFrame(conn)
	if err != nil {
		return vendingNet.Report{}, fmt.Errorf("unable to read report: %w", err)
	}
	return vendingNet.ParseReport(frame)
}
