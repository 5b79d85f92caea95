package config

import (
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDatabase()
	c.normalizeSMB()
	c.normalizeEDCB()
	c.normalizeLogging()
	c.normalizeWorkflow()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeDatabase() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = defaultDatabaseDriver
	}
	c.Database.SQLitePath = strings.TrimSpace(c.Database.SQLitePath)
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = filepath.Join(c.Paths.DataDir, "tv.db")
	}
	c.Database.PostgresDSN = strings.TrimSpace(c.Database.PostgresDSN)
}

func (c *Config) normalizeSMB() {
	c.SMB.Server = strings.TrimSpace(c.SMB.Server)
	c.SMB.Username = strings.TrimSpace(c.SMB.Username)
	c.SMB.Domain = strings.TrimSpace(c.SMB.Domain)
	if c.SMB.Port <= 0 {
		c.SMB.Port = defaultSMBPort
	}
	if c.SMB.DialTimeoutSeconds <= 0 {
		c.SMB.DialTimeoutSeconds = defaultSMBDialTimeout
	}
}

func (c *Config) normalizeEDCB() {
	c.EDCB.URL = strings.TrimRight(strings.TrimSpace(c.EDCB.URL), "/")
	if c.EDCB.TimeoutSeconds <= 0 {
		c.EDCB.TimeoutSeconds = defaultEDCBTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.JobQueueSize <= 0 {
		c.Workflow.JobQueueSize = defaultJobQueueSize
	}
}
