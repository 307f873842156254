package main

import (
	"context"
	"fmt"
	"os"

	"budgetbook/internal/cli"
	"budgetbook/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentCLI)
	ctx := log.NewContext(context.Background(), logger)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var (
		err error
		op  string
	)
	switch os.Args[1] {
	case "classify":
		op, err = log.OpClassify, runClassify(ctx, os.Args[2:], os.Stdout)
	case "predict":
		op, err = log.OpPredict, runPredict(ctx, os.Args[2:], os.Stdout)
	case "submit":
		op, err = log.OpPublish, runSubmit(ctx, os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.WithFields(log.NewFields().WithOperation(op).WithError(err)).Error("Command failed")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("BudgetBook CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  budgetbook <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  classify  Assign a category to every transaction of a file")
	fmt.Println("  predict   Find recurring transactions and optionally expand them")
	fmt.Println("  submit    Publish a transaction file to the worker queue")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'budgetbook <command> -h' for more information on a command.")
}
