// Package discovery registers services with Consul and resolves their
// healthy instances.
package discovery

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/hashicorp/consul/api"
)

type ConsulClient struct {
	client *api.Client
	logger *slog.Logger
}

type ServiceConfig struct {
	Name string
	ID   string
	// Address defaults to this machine's outbound IP.
	Address string
	Port    int
	Tags    []string
}

func NewConsulClient(host string, port int, logger *slog.Logger) (*ConsulClient, error) {
	config := api.DefaultConfig()
	config.Address = fmt.Sprintf("%s:%d", host, port)

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}

	if _, err := client.Agent().Self(); err != nil {
		return nil, fmt.Errorf("failed to connect to Consul: %w", err)
	}

	logger.Info("✅ Connected to Consul", "addr", config.Address)

	return &ConsulClient{client: client, logger: logger}, nil
}

// getOutboundIP gets the preferred outbound IP of this machine
func getOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}

// Registration builds the agent registration with an HTTP health check on
// the service's /health endpoint.
func Registration(cfg ServiceConfig) *api.AgentServiceRegistration {
	address := cfg.Address
	if address == "" {
		address = getOutboundIP()
	}
	return &api.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Port:    cfg.Port,
		Address: address,
		Tags:    cfg.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", address, cfg.Port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
}

func (c *ConsulClient) Register(cfg ServiceConfig) error {
	registration := Registration(cfg)
	if err := c.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	c.logger.Info("✅ Registered service",
		"name", cfg.Name, "id", cfg.ID, "address", registration.Address, "port", cfg.Port)
	return nil
}

func (c *ConsulClient) Deregister(serviceID string) error {
	if err := c.client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	c.logger.Info("✅ Deregistered service", "id", serviceID)
	return nil
}

// ServiceURL returns the base URL of the first healthy instance.
func (c *ConsulClient) ServiceURL(serviceName string) (string, error) {
	services, _, err := c.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get service: %w", err)
	}
	if len(services) == 0 {
		return "", fmt.Errorf("no healthy instances of %s found", serviceName)
	}
	return instanceURL(services[0]), nil
}

func instanceURL(entry *api.ServiceEntry) string {
	address := entry.Service.Address
	if address == "" {
		address = entry.Node.Address
	}
	if address == "" {
		address = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(address, fmt.Sprint(entry.Service.Port)))
}
