package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database DSN
//	-f state file path
//	-c/-config json file path with configs
//	-notion-api-key notion integration token
//	-notion-database-id notion database id
//	-zotero-api-key zotero api key
//	-zotero-group-id zotero group library id
//	-poll-interval pause between poll cycles (e.g., "5m", "30s")
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-notes-heading heading text marking the notes section
//	-origin-tag tag attached to everything the daemon writes
//	-delete-orphaned-notes delete mirrored notes whose source block is gone
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var stateFilePath string
	var jsonConfigPath string
	var notionAPIKey string
	var notionDatabaseID string
	var zoteroAPIKey string
	var zoteroGroupID int64
	var pollInterval time.Duration
	var requestTimeout time.Duration
	var notesHeading string
	var originTag string
	var deleteOrphanedNotes bool

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&stateFilePath, "f", "", "State file path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&notionAPIKey, "notion-api-key", "", "Notion integration token")
	flag.StringVar(&notionDatabaseID, "notion-database-id", "", "Notion database id")
	flag.StringVar(&zoteroAPIKey, "zotero-api-key", "", "Zotero API key")
	flag.Int64Var(&zoteroGroupID, "zotero-group-id", 0, "Zotero group library id")
	flag.DurationVar(&pollInterval, "poll-interval", 0, "Poll interval (e.g., 5m, 30s)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.StringVar(&notesHeading, "notes-heading", "", "Heading text marking the notes section")
	flag.StringVar(&originTag, "origin-tag", "", "Tag attached to everything the daemon writes")
	flag.BoolVar(&deleteOrphanedNotes, "delete-orphaned-notes", false, "Delete mirrored notes whose source block is gone")

	flag.Parse()

	return &StructuredConfig{
		Notion: Notion{
			APIKey:     notionAPIKey,
			DatabaseID: notionDatabaseID,
		},
		Zotero: Zotero{
			APIKey:  zoteroAPIKey,
			GroupID: zoteroGroupID,
		},
		Storage: Storage{
			DSN:       databaseDSN,
			StateFile: stateFilePath,
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			PollInterval:        pollInterval,
			NotesHeading:        notesHeading,
			OriginTag:           originTag,
			DeleteOrphanedNotes: deleteOrphanedNotes,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns the empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
