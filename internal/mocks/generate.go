// Package mocks provides gomock-generated mock implementations of the
// broker and transaction boundaries.
package mocks

//go:generate mockgen -destination=mock_publisher.go -package=mocks github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/messaging Publisher
//go:generate mockgen -destination=mock_tx_runner.go -package=mocks github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store TxRunner
