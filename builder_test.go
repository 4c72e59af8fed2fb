package droute

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderEmpty(t *testing.T) {
	b := testBuilder()
	require.Empty(t, b.DestinationMap())
	require.NoError(t, b.Err())

	table, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, table)
}

func TestBuilderNilServers(t *testing.T) {
	b := testBuilder()
	err := b.Add("host.com", nil)
	var cErr *ConfigurationError
	require.True(t, errors.As(err, &cErr))
	require.Contains(t, err.Error(), "host.com")
	require.Empty(t, b.DestinationMap())

	// Chained form records the first error and fails the build
	b = testBuilder().With("a.com", "10.0.0.1").With("host.com").With("other.com")
	require.True(t, errors.As(b.Err(), &cErr))
	require.Equal(t, "host.com", cErr.Destination)
	_, err = b.Build()
	require.Equal(t, b.Err(), err)
}

func TestBuilderSingleDestination(t *testing.T) {
	b := testBuilder().With("host.com", "127.0.0.1")
	require.Equal(t, map[string][]string{"host.com.": {"127.0.0.1"}}, b.DestinationMap())

	table, err := b.Build()
	require.NoError(t, err)
	r, ok := table.Lookup("host.com")
	require.True(t, ok)
	require.Equal(t, "127.0.0.1", r.String())
}

func TestBuilderNormalization(t *testing.T) {
	b := testBuilder().
		With("host.com", "10.0.0.1").
		With("host.com.", "10.0.0.2").
		With("HOST.COM", "10.0.0.3")
	require.Equal(t, map[string][]string{
		"host.com.": {"10.0.0.1", "10.0.0.2", "10.0.0.3"},
	}, b.DestinationMap())

	table, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
}

func TestBuilderServerList(t *testing.T) {
	b := testBuilder()
	require.NoError(t, b.Add("example.com", []string{"10.0.0.1", "", "10.0.0.2", "  ", "10.0.0.1"}))
	require.NoError(t, b.Add("example.com", []string{"10.0.0.3"}))
	require.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.1", "10.0.0.3"}, b.DestinationMap()["example.com."])

	table, err := b.Build()
	require.NoError(t, err)
	r, ok := table.Lookup("example.com")
	require.True(t, ok)
	require.Equal(t, "10.0.0.1,10.0.0.2,10.0.0.1,10.0.0.3", r.String())
}

func TestBuilderRootDestination(t *testing.T) {
	b := testBuilder().With("", "10.0.0.53").With(".", "10.0.0.54")
	require.Equal(t, map[string][]string{".": {"10.0.0.53", "10.0.0.54"}}, b.DestinationMap())
}

func TestBuilderNoAlias(t *testing.T) {
	b := testBuilder().With("example.com", "10.0.0.1")

	// Changing the returned map doesn't change the builder
	m := b.DestinationMap()
	m["example.com."][0] = "changed"
	m["other.com."] = []string{"10.0.0.9"}
	require.Equal(t, map[string][]string{"example.com.": {"10.0.0.1"}}, b.DestinationMap())

	// Changing the builder after the build doesn't change the table
	table, err := b.Build()
	require.NoError(t, err)
	b.With("example.com", "10.0.0.2").With("www.example.com", "10.0.0.3")
	r, ok := table.Lookup("www.example.com")
	require.True(t, ok)
	require.Equal(t, "10.0.0.1", r.String())
	require.Equal(t, 1, table.Len())
}

func TestBuilderSetupError(t *testing.T) {
	table, err := testBuilder().
		With("example.com", "10.0.0.1").
		With("broken.com", "fail").
		Build()
	require.Nil(t, table)
	var sErr *RoutingSetupError
	require.True(t, errors.As(err, &sErr))
	require.Equal(t, "broken.com.", sErr.Destination)
	require.EqualError(t, errors.Unwrap(err), "server failed")
}

func TestBuilderDefaultFactory(t *testing.T) {
	table, err := NewRoutingTableBuilder(RoutingTableBuilderOptions{}).
		With("example.com", "10.0.0.1", "tcp://10.0.0.2:5353").
		Build()
	require.NoError(t, err)
	r, ok := table.Lookup("www.example.com")
	require.True(t, ok)
	g, ok := r.(*ServerGroup)
	require.True(t, ok)
	require.Equal(t, []string{"10.0.0.1", "tcp://10.0.0.2:5353"}, g.Servers())
}

func TestBuilderDefaultFactoryFailure(t *testing.T) {
	// Invalid address
	_, err := NewRoutingTableBuilder(RoutingTableBuilderOptions{}).
		With("example.com", "not a server!").
		Build()
	var sErr *RoutingSetupError
	require.True(t, errors.As(err, &sErr))

	// No servers left after dropping the blank ones
	b := NewRoutingTableBuilder(RoutingTableBuilderOptions{}).
		With("example.com", "", " \t")
	require.NoError(t, b.Err())
	require.Equal(t, map[string][]string{"example.com.": {}}, b.DestinationMap())
	_, err = b.Build()
	require.True(t, errors.As(err, &sErr))
	require.Equal(t, "example.com.", sErr.Destination)
}
