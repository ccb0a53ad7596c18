package daemonclient

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"gopkg.in/yaml.v3"
)

// DescriptorPath is the versioned catalog the client binds against
const DescriptorPath = "proto/broker/v1/services.yaml"

//go:embed proto
var protoFS embed.FS

// Service names of the broker daemon
const (
	AdminService     = "AdminService"
	OrderService     = "OrderService"
	OrderBookService = "OrderBookService"
	WalletService    = "WalletService"
	InfoService      = "InfoService"
)

// MethodDescriptor describes one remote operation
type MethodDescriptor struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	ServerStreaming bool   `yaml:"server_streaming"`
}

// ServiceDescriptor describes one remote service interface
type ServiceDescriptor struct {
	Name    string             `yaml:"name"`
	Methods []MethodDescriptor `yaml:"methods"`

	// Package and Version are copied from the catalog header
	Package string `yaml:"-"`
	Version string `yaml:"-"`
}

// FullName returns the package-qualified service name
func (s ServiceDescriptor) FullName() string {
	if s.Package == "" {
		return s.Name
	}
	return s.Package + "." + s.Name
}

// FullMethod returns the gRPC method path for method
func (s ServiceDescriptor) FullMethod(method string) string {
	return "/" + s.FullName() + "/" + method
}

// Method looks up a method by name
func (s ServiceDescriptor) Method(name string) (MethodDescriptor, bool) {
	for _, m := range s.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodDescriptor{}, false
}

// DescriptorSet is an immutable, loaded service catalog. It is safe for
// concurrent use.
type DescriptorSet struct {
	pkg      string
	version  string
	services []ServiceDescriptor
	index    map[string]int
}

type catalogFile struct {
	Package  string              `yaml:"package"`
	Version  string              `yaml:"version"`
	Services []ServiceDescriptor `yaml:"services"`
}

// ParseDescriptors parses a YAML service catalog. Empty or duplicate
// service names and duplicate method names within a service are errors.
func ParseDescriptors(data []byte) (*DescriptorSet, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse service catalog: %w", err)
	}
	if len(file.Services) == 0 {
		return nil, fmt.Errorf("service catalog declares no services")
	}

	set := &DescriptorSet{
		pkg:      file.Package,
		version:  file.Version,
		services: make([]ServiceDescriptor, 0, len(file.Services)),
		index:    make(map[string]int, len(file.Services)),
	}

	for _, svc := range file.Services {
		if svc.Name == "" {
			return nil, fmt.Errorf("service catalog contains a service without name")
		}
		if _, dup := set.index[svc.Name]; dup {
			return nil, fmt.Errorf("duplicate service %q in catalog", svc.Name)
		}

		seen := make(map[string]bool, len(svc.Methods))
		for _, m := range svc.Methods {
			if m.Name == "" {
				return nil, fmt.Errorf("service %s has a method without name", svc.Name)
			}
			if seen[m.Name] {
				return nil, fmt.Errorf("duplicate method %s.%s in catalog", svc.Name, m.Name)
			}
			seen[m.Name] = true
		}

		svc.Package = file.Package
		svc.Version = file.Version
		set.index[svc.Name] = len(set.services)
		set.services = append(set.services, svc)
	}

	return set, nil
}

// LoadDescriptors reads and parses the catalog at path in fsys
func LoadDescriptors(fsys fs.FS, path string) (*DescriptorSet, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service catalog %s: %w", path, err)
	}
	set, err := ParseDescriptors(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Descriptors returns the process-wide catalog embedded at DescriptorPath.
// It is loaded on first use and shared read-only afterwards.
var Descriptors = sync.OnceValues(func() (*DescriptorSet, error) {
	return LoadDescriptors(protoFS, DescriptorPath)
})

// Package returns the protobuf package of the catalog
func (d *DescriptorSet) Package() string { return d.pkg }

// Version returns the catalog version
func (d *DescriptorSet) Version() string { return d.version }

// Len returns the number of services
func (d *DescriptorSet) Len() int { return len(d.services) }

// Names returns the service names in catalog order
func (d *DescriptorSet) Names() []string {
	names := make([]string, len(d.services))
	for i, s := range d.services {
		names[i] = s.Name
	}
	return names
}

// Service looks up a service by name
func (d *DescriptorSet) Service(name string) (ServiceDescriptor, bool) {
	i, ok := d.index[name]
	if !ok {
		return ServiceDescriptor{}, false
	}
	return d.services[i].clone(), true
}

// Services returns copies of all descriptors in catalog order
func (d *DescriptorSet) Services() []ServiceDescriptor {
	out := make([]ServiceDescriptor, len(d.services))
	for i, s := range d.services {
		out[i] = s.clone()
	}
	return out
}

func (s ServiceDescriptor) clone() ServiceDescriptor {
	s.Methods = append([]MethodDescriptor(nil), s.Methods...)
	return s
}
