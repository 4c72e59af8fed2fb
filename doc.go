/*
Package droute routes DNS queries to groups of upstream servers based on the
query name.

# Routing tables

A RoutingTable maps domains to resolvers. Lookups use the most specific
configured domain: a query for sub.example.com is sent to the resolver for
sub.example.com if there is one, otherwise to the one for example.com, then
com, and finally the root ".". Tables are compiled from domains and server
lists with a RoutingTableBuilder and are immutable once built.

# Routing resolvers

A RoutingResolver sends each query to the resolver its current routing table
has for the query name, and to a fallback resolver if there is none. The table
can be replaced at any time without interrupting queries in flight.

# Server groups

A ServerGroup resolves queries with an ordered list of servers over UDP, TCP,
DNS-over-TLS or DNS-over-HTTPS, failing over to the next server on error. It
is what a RoutingTableBuilder creates for every domain by default.
*/
package droute
