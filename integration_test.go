package main

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"bankledger/internal/config"
	"bankledger/internal/server"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type IntegrationTestSuite struct {
	suite.Suite
	postgresContainer *postgres.PostgresContainer
	serverInstance    *server.Server
	baseURL           string
	client            *http.Client
	dbConnStr         string

	// state shared across steps
	customerID           string
	unemployedCustomerID string
	savingsNumber        string
	investmentNumber     string
	chequeNumber         string
}

func (suite *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("bankledger"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %s", err)
	}
	suite.postgresContainer = postgresContainer

	suite.dbConnStr, err = postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		suite.T().Fatalf("Failed to get connection string: %s", err)
	}

	if err := suite.runMigrations(); err != nil {
		suite.T().Fatalf("Failed to run migrations: %s", err)
	}

	if err := suite.startApplicationServer(); err != nil {
		suite.T().Fatalf("Failed to start application server: %s", err)
	}

	suite.client = &http.Client{
		Timeout: 30 * time.Second,
	}
}

func (suite *IntegrationTestSuite) runMigrations() error {
	db, err := sql.Open("postgres", suite.dbConnStr)
	if err != nil {
		return err
	}
	defer db.Close()

	migrationFiles, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	sort.Slice(migrationFiles, func(i, j int) bool {
		return migrationFiles[i].Name() < migrationFiles[j].Name()
	})

	for _, file := range migrationFiles {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		migrationSQL, err := migrationsFS.ReadFile(filepath.Join("migrations", file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}
		if _, err := db.Exec(string(migrationSQL)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file.Name(), err)
		}
		suite.T().Logf("Executed migration: %s", file.Name())
	}

	return nil
}

func (suite *IntegrationTestSuite) startApplicationServer() error {
	ctx := context.Background()

	host, err := suite.postgresContainer.Host(ctx)
	if err != nil {
		return err
	}
	mappedPort, err := suite.postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		return err
	}

	cfg := &config.Config{
		DBHost:        host,
		DBPort:        mappedPort.Port(),
		DBUser:        "postgres",
		DBPassword:    "password",
		DBName:        "bankledger",
		ServerPort:    "0", // let the OS choose a free port
		StorageDriver: "postgres",
		BankName:      "Kgalagadi Retail Bank",
	}

	serverInstance, port, err := server.StartServer(cfg)
	if err != nil {
		return err
	}

	suite.serverInstance = serverInstance
	suite.baseURL = "http://localhost:" + port

	return suite.waitForServerReady()
}

func (suite *IntegrationTestSuite) waitForServerReady() error {
	timeout := 30 * time.Second
	start := time.Now()

	for time.Since(start) < timeout {
		resp, err := http.Get(suite.baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if suite.serverInstance != nil {
		suite.serverInstance.Stop(ctx)
	}

	if suite.postgresContainer != nil {
		suite.postgresContainer.Terminate(ctx)
	}
}

// postJSON sends a POST with a JSON body and returns the status and the raw
// response body.
func (suite *IntegrationTestSuite) postJSON(path string, payload interface{}) (int, string) {
	body, err := json.Marshal(payload)
	if err != nil {
		suite.T().Fatalf("Failed to marshal request: %s", err)
	}

	resp, err := suite.client.Post(suite.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		suite.T().Fatalf("POST %s failed: %s", path, err)
	}
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	return resp.StatusCode, string(respBody)
}

func (suite *IntegrationTestSuite) getJSON(path string) (int, string) {
	resp, err := suite.client.Get(suite.baseURL + path)
	if err != nil {
		suite.T().Fatalf("GET %s failed: %s", path, err)
	}
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	return resp.StatusCode, string(respBody)
}

// dataField unmarshals the response envelope and returns its data object.
func (suite *IntegrationTestSuite) dataField(body string) map[string]interface{} {
	var response map[string]interface{}
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		suite.T().Fatalf("Failed to parse response: %s", body)
	}
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		suite.T().Fatalf("Response has no data object: %s", body)
	}
	return data
}

func (suite *IntegrationTestSuite) dataList(body string) []interface{} {
	var response map[string]interface{}
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		suite.T().Fatalf("Failed to parse response: %s", body)
	}
	data, ok := response["data"].([]interface{})
	if !ok {
		suite.T().Fatalf("Response has no data list: %s", body)
	}
	return data
}

func (suite *IntegrationTestSuite) assertErrorCode(body, expectedCode string) {
	var response map[string]interface{}
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		suite.T().Fatalf("Failed to parse response: %s", body)
	}
	errorData, ok := response["error"].(map[string]interface{})
	if !ok {
		suite.T().Fatalf("Response has no error object: %s", body)
		return
	}
	assert.Equal(suite.T(), expectedCode, errorData["code"])
}

func (suite *IntegrationTestSuite) assertDecimalEqual(expected, actual string) {
	expectedDec, err := decimal.NewFromString(expected)
	if err != nil {
		suite.T().Fatalf("Invalid expected decimal: %s", expected)
	}
	actualDec, err := decimal.NewFromString(actual)
	if err != nil {
		suite.T().Fatalf("Invalid actual decimal: %s", actual)
	}
	assert.True(suite.T(), expectedDec.Equal(actualDec),
		"Decimal values not equal: expected %s, got %s", expected, actual)
}

// ------------------------------------------------------------------
// Steps below are helpers (non-test methods). They are executed in the
// order invoked by TestFlow, which keeps the scenario deterministic.
// ------------------------------------------------------------------

func (suite *IntegrationTestSuite) stepHealthCheck() {
	status, body := suite.getJSON("/health")
	assert.Equal(suite.T(), http.StatusOK, status)

	var healthResp map[string]interface{}
	assert.NoError(suite.T(), json.Unmarshal([]byte(body), &healthResp))
	assert.Equal(suite.T(), "healthy", healthResp["status"])
	assert.Equal(suite.T(), "Kgalagadi Retail Bank", healthResp["bank"])
}

func (suite *IntegrationTestSuite) stepRegisterCustomers() {
	status, body := suite.postJSON("/customers", map[string]interface{}{
		"first_name": "Thabang",
		"surname":    "Mark",
		"address":    "123 Main St, Gaborone",
		"phone":      "71000001",
		"email":      "thabang@example.com",
		"employed":   true,
	})
	suite.T().Logf("Register Customer Response: %s", body)
	assert.Equal(suite.T(), http.StatusCreated, status)

	data := suite.dataField(body)
	suite.customerID = data["customer_id"].(string)
	assert.NotEmpty(suite.T(), suite.customerID)
	assert.Equal(suite.T(), "Thabang", data["first_name"])

	status, body = suite.postJSON("/customers", map[string]interface{}{
		"first_name": "Naledi",
		"surname":    "Kebonang",
		"phone":      "73111222",
		"employed":   false,
	})
	assert.Equal(suite.T(), http.StatusCreated, status)
	suite.unemployedCustomerID = suite.dataField(body)["customer_id"].(string)

	// Phone lookup on the collection endpoint
	status, body = suite.getJSON("/customers?phone=71000001")
	assert.Equal(suite.T(), http.StatusOK, status)
	list := suite.dataList(body)
	assert.Len(suite.T(), list, 1)
	assert.Equal(suite.T(), suite.customerID, list[0].(map[string]interface{})["customer_id"])
}

func (suite *IntegrationTestSuite) stepOpenAccounts() {
	status, body := suite.postJSON("/accounts", map[string]interface{}{
		"customer_id":  suite.customerID,
		"account_type": "SAVINGS",
		"branch":       "Main Branch",
	})
	suite.T().Logf("Open Savings Response: %s", body)
	assert.Equal(suite.T(), http.StatusCreated, status)
	data := suite.dataField(body)
	suite.savingsNumber = data["account_number"].(string)
	assert.Equal(suite.T(), "SAV1001", suite.savingsNumber)
	assert.Equal(suite.T(), "Savings Account", data["description"])
	suite.assertDecimalEqual("0", data["balance"].(string))

	status, body = suite.postJSON("/accounts", map[string]interface{}{
		"customer_id":     suite.customerID,
		"account_type":    "INVESTMENT",
		"branch":          "Main Branch",
		"initial_deposit": "1000",
	})
	assert.Equal(suite.T(), http.StatusCreated, status)
	data = suite.dataField(body)
	suite.investmentNumber = data["account_number"].(string)
	assert.Equal(suite.T(), "INV1002", suite.investmentNumber)
	suite.assertDecimalEqual("1000", data["balance"].(string))

	status, body = suite.postJSON("/accounts", map[string]interface{}{
		"customer_id":      suite.customerID,
		"account_type":     "CHEQUE",
		"branch":           "Main Branch",
		"employer_name":    "Debswana",
		"employer_address": "1 Mine Rd, Jwaneng",
	})
	assert.Equal(suite.T(), http.StatusCreated, status)
	suite.chequeNumber = suite.dataField(body)["account_number"].(string)
	assert.Equal(suite.T(), "CHQ1003", suite.chequeNumber)

	// The investment account's opening deposit is already in the log
	status, body = suite.getJSON("/accounts/" + suite.investmentNumber + "/transactions")
	assert.Equal(suite.T(), http.StatusOK, status)
	log := suite.dataList(body)
	assert.Len(suite.T(), log, 1)
	entry := log[0].(map[string]interface{})
	assert.Equal(suite.T(), "OPENING_DEPOSIT", entry["type"])
	assert.Equal(suite.T(), "Account opening", entry["description"])
}

func (suite *IntegrationTestSuite) stepOpeningPreconditions() {
	status, body := suite.postJSON("/accounts", map[string]interface{}{
		"customer_id":     suite.customerID,
		"account_type":    "INVESTMENT",
		"initial_deposit": "100",
	})
	suite.T().Logf("Below-Minimum Investment Response: %s", body)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, status)
	suite.assertErrorCode(body, "precondition_violation")

	status, body = suite.postJSON("/accounts", map[string]interface{}{
		"customer_id":      suite.unemployedCustomerID,
		"account_type":     "CHEQUE",
		"employer_name":    "Debswana",
		"employer_address": "1 Mine Rd, Jwaneng",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, status)
	suite.assertErrorCode(body, "precondition_violation")

	status, body = suite.postJSON("/accounts", map[string]interface{}{
		"customer_id":  suite.customerID,
		"account_type": "FIXED_TERM",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	suite.assertErrorCode(body, "invalid_input")
}

func (suite *IntegrationTestSuite) stepDeposits() {
	status, body := suite.postJSON("/accounts/"+suite.savingsNumber+"/deposits", map[string]interface{}{
		"amount": "500",
	})
	suite.T().Logf("Deposit Response: %s", body)
	assert.Equal(suite.T(), http.StatusOK, status)
	suite.assertDecimalEqual("500", suite.dataField(body)["balance"].(string))

	status, body = suite.postJSON("/accounts/"+suite.savingsNumber+"/deposits", map[string]interface{}{
		"amount":      "300",
		"description": "Bonus",
	})
	assert.Equal(suite.T(), http.StatusOK, status)
	suite.assertDecimalEqual("800", suite.dataField(body)["balance"].(string))

	status, body = suite.postJSON("/accounts/"+suite.chequeNumber+"/salary-deposits", map[string]interface{}{
		"amount":    "12000",
		"reference": "PAY-2026-08",
	})
	assert.Equal(suite.T(), http.StatusOK, status)
	suite.assertDecimalEqual("12000", suite.dataField(body)["balance"].(string))
}

func (suite *IntegrationTestSuite) stepSavingsWithdrawalRejected() {
	status, body := suite.postJSON("/accounts/"+suite.savingsNumber+"/withdrawals", map[string]interface{}{
		"amount": "100",
	})
	suite.T().Logf("Savings Withdrawal Response: %s", body)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, status)
	suite.assertErrorCode(body, "withdrawals_not_permitted")

	// Balance unchanged, attempt audited
	status, body = suite.getJSON("/accounts/" + suite.savingsNumber)
	assert.Equal(suite.T(), http.StatusOK, status)
	suite.assertDecimalEqual("800", suite.dataField(body)["balance"].(string))

	status, body = suite.getJSON("/accounts/" + suite.savingsNumber + "/transactions")
	assert.Equal(suite.T(), http.StatusOK, status)
	log := suite.dataList(body)
	latest := log[0].(map[string]interface{})
	assert.Equal(suite.T(), "WITHDRAWAL_FAILED", latest["type"])
	assert.Equal(suite.T(), "Withdrawals not permitted", latest["description"])
	suite.assertDecimalEqual("800", latest["balance_after"].(string))
}

func (suite *IntegrationTestSuite) stepInvestmentWithdrawal() {
	status, body := suite.postJSON("/accounts/"+suite.investmentNumber+"/withdrawals", map[string]interface{}{
		"amount": "200",
	})
	assert.Equal(suite.T(), http.StatusOK, status)
	suite.assertDecimalEqual("800", suite.dataField(body)["balance"].(string))
}

func (suite *IntegrationTestSuite) stepTransfer() {
	status, body := suite.postJSON("/transfers", map[string]interface{}{
		"source_account_number":      suite.investmentNumber,
		"destination_account_number": suite.savingsNumber,
		"amount":                     "300",
	})
	suite.T().Logf("Transfer Response: %s", body)
	assert.Equal(suite.T(), http.StatusCreated, status)

	data := suite.dataField(body)
	suite.assertDecimalEqual("500", data["source_balance"].(string))
	suite.assertDecimalEqual("1100", data["destination_balance"].(string))
}

func (suite *IntegrationTestSuite) stepTransferValidation() {
	status, body := suite.postJSON("/transfers", map[string]interface{}{
		"source_account_number":      suite.investmentNumber,
		"destination_account_number": suite.investmentNumber,
		"amount":                     "100",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	suite.assertErrorCode(body, "same_account_transfer")

	status, body = suite.postJSON("/transfers", map[string]interface{}{
		"source_account_number":      suite.investmentNumber,
		"destination_account_number": suite.savingsNumber,
		"amount":                     "0",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	suite.assertErrorCode(body, "invalid_amount")

	status, body = suite.postJSON("/transfers", map[string]interface{}{
		"source_account_number":      suite.investmentNumber,
		"destination_account_number": suite.savingsNumber,
		"amount":                     "10000",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, status)
	suite.assertErrorCode(body, "insufficient_funds")

	// Balances untouched by the rejected transfers
	_, body = suite.getJSON("/accounts/" + suite.investmentNumber)
	suite.assertDecimalEqual("500", suite.dataField(body)["balance"].(string))
}

func (suite *IntegrationTestSuite) stepInterestRun() {
	status, body := suite.postJSON("/interest-runs", nil)
	suite.T().Logf("Interest Run Response: %s", body)
	assert.Equal(suite.T(), http.StatusOK, status)

	data := suite.dataField(body)
	// Savings and investment earn, the cheque account is skipped
	assert.Equal(suite.T(), float64(2), data["accounts_processed"])
	assert.Equal(suite.T(), float64(1), data["accounts_skipped"])
	suite.assertDecimalEqual("25.55", data["total_interest"].(string))

	_, body = suite.getJSON("/accounts/" + suite.savingsNumber)
	suite.assertDecimalEqual("1100.55", suite.dataField(body)["balance"].(string))

	_, body = suite.getJSON("/accounts/" + suite.investmentNumber)
	suite.assertDecimalEqual("525", suite.dataField(body)["balance"].(string))

	_, body = suite.getJSON("/accounts/" + suite.chequeNumber)
	suite.assertDecimalEqual("12000", suite.dataField(body)["balance"].(string))
}

func (suite *IntegrationTestSuite) stepTransactionHistory() {
	status, body := suite.getJSON("/accounts/" + suite.savingsNumber + "/transactions?order=asc")
	assert.Equal(suite.T(), http.StatusOK, status)

	log := suite.dataList(body)
	assert.Len(suite.T(), log, 5)

	types := make([]string, 0, len(log))
	for _, raw := range log {
		types = append(types, raw.(map[string]interface{})["type"].(string))
	}
	assert.Equal(suite.T(), []string{"DEPOSIT", "DEPOSIT", "WITHDRAWAL_FAILED", "TRANSFER_IN", "INTEREST"}, types)

	last := log[len(log)-1].(map[string]interface{})
	assert.Equal(suite.T(), "Monthly interest payment", last["description"])
	suite.assertDecimalEqual("1100.55", last["balance_after"].(string))

	// Default order is newest-first
	_, body = suite.getJSON("/accounts/" + suite.savingsNumber + "/transactions")
	newestFirst := suite.dataList(body)
	assert.Equal(suite.T(), "INTEREST", newestFirst[0].(map[string]interface{})["type"])
}

func (suite *IntegrationTestSuite) stepCustomerPortfolio() {
	status, body := suite.getJSON("/customers/" + suite.customerID + "/accounts")
	assert.Equal(suite.T(), http.StatusOK, status)
	accounts := suite.dataList(body)
	assert.Len(suite.T(), accounts, 3)
	assert.Equal(suite.T(), suite.savingsNumber, accounts[0].(map[string]interface{})["account_number"])

	status, body = suite.getJSON("/customers/" + suite.customerID + "/accounts?type=SAVINGS")
	assert.Equal(suite.T(), http.StatusOK, status)
	assert.Len(suite.T(), suite.dataList(body), 1)

	status, body = suite.getJSON("/customers/" + suite.customerID + "/balance")
	assert.Equal(suite.T(), http.StatusOK, status)
	// 1100.55 + 525 + 12000
	suite.assertDecimalEqual("13625.55", suite.dataField(body)["total_balance"].(string))
}

func (suite *IntegrationTestSuite) stepAccountNotFound() {
	status, body := suite.getJSON("/accounts/SAV9999")
	assert.Equal(suite.T(), http.StatusNotFound, status)
	suite.assertErrorCode(body, "account_not_found")

	status, body = suite.postJSON("/accounts/SAV9999/deposits", map[string]interface{}{
		"amount": "100",
	})
	assert.Equal(suite.T(), http.StatusNotFound, status)
	suite.assertErrorCode(body, "account_not_found")
}

func (suite *IntegrationTestSuite) stepDeactivation() {
	status, body := suite.postJSON("/accounts/"+suite.chequeNumber+"/deactivate", nil)
	suite.T().Logf("Deactivate Response: %s", body)
	assert.Equal(suite.T(), http.StatusOK, status)

	status, body = suite.postJSON("/accounts/"+suite.chequeNumber+"/deposits", map[string]interface{}{
		"amount": "100",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, status)
	suite.assertErrorCode(body, "account_inactive")

	// Balance and history survive deactivation
	status, body = suite.getJSON("/accounts/" + suite.chequeNumber)
	assert.Equal(suite.T(), http.StatusOK, status)
	data := suite.dataField(body)
	assert.Equal(suite.T(), false, data["active"])
	suite.assertDecimalEqual("12000", data["balance"].(string))
}

func (suite *IntegrationTestSuite) TestFlow() {
	if testing.Short() {
		suite.T().Skip("Skipping integration test in short mode")
	}

	suite.stepHealthCheck()
	suite.stepRegisterCustomers()
	suite.stepOpenAccounts()
	suite.stepOpeningPreconditions()
	suite.stepDeposits()
	suite.stepSavingsWithdrawalRejected()
	suite.stepInvestmentWithdrawal()
	suite.stepTransfer()
	suite.stepTransferValidation()
	suite.stepInterestRun()
	suite.stepTransactionHistory()
	suite.stepCustomerPortfolio()
	suite.stepAccountNotFound()
	suite.stepDeactivation()
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}
