package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Creates the full schema. DSN needs multiStatements=true.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS users (
	  id CHAR(36) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  role VARCHAR(16) NOT NULL DEFAULT 'customer',
	  first_name VARCHAR(100) NULL,
	  last_name VARCHAR(100) NULL,
	  phone_e164 VARCHAR(20) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS sessions (
	  id CHAR(36) NOT NULL,
	  user_id CHAR(36) NOT NULL,
	  token_hash BINARY(32) NOT NULL,
	  expires_at DATETIME(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  last_seen_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_sessions_token_hash (token_hash),
	  KEY ix_sessions_user_id (user_id),
	  CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS devices (
	  id CHAR(36) NOT NULL,
	  user_id CHAR(36) NULL,
	  brand VARCHAR(64) NOT NULL,
	  model VARCHAR(128) NULL,
	  serial_number VARCHAR(64) NULL,
	  imei VARCHAR(32) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_devices_user_id (user_id),
	  KEY ix_devices_serial (serial_number),
	  KEY ix_devices_imei (imei),
	  CONSTRAINT fk_devices_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS work_orders (
	  id CHAR(36) NOT NULL,
	  user_id CHAR(36) NULL,
	  device_id CHAR(36) NULL,
	  status VARCHAR(32) NOT NULL DEFAULT 'received',
	  payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
	  total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
	  currency CHAR(3) NOT NULL DEFAULT 'NGN',
	  metadata JSON NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_work_orders_user_id (user_id),
	  KEY ix_work_orders_device_id (device_id),
	  CONSTRAINT fk_work_orders_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL,
	  CONSTRAINT fk_work_orders_device FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payments (
	  id CHAR(36) NOT NULL,
	  work_order_id CHAR(36) NULL,
	  user_id CHAR(36) NULL,
	  amount DECIMAL(12,2) NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'NGN',
	  provider VARCHAR(32) NOT NULL,
	  provider_reference VARCHAR(128) NOT NULL,
	  status VARCHAR(16) NOT NULL DEFAULT 'pending',
	  webhook_verified TINYINT(1) NOT NULL DEFAULT 0,
	  webhook_verified_at DATETIME(3) NULL,
	  metadata JSON NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_payments_provider_ref (provider, provider_reference),
	  KEY ix_payments_work_order_id (work_order_id),
	  KEY ix_payments_user_id (user_id),
	  CONSTRAINT fk_payments_work_order FOREIGN KEY (work_order_id) REFERENCES work_orders(id) ON DELETE SET NULL,
	  CONSTRAINT fk_payments_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS warranty_checks (
	  id CHAR(36) NOT NULL,
	  work_order_id CHAR(36) NULL,
	  provider VARCHAR(32) NOT NULL,
	  initiated_by VARCHAR(64) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  warranty_status VARCHAR(64) NULL,
	  warranty_expiry DATETIME(3) NULL,
	  purchase_date DATETIME(3) NULL,
	  coverage_start DATETIME(3) NULL,
	  coverage_end DATETIME(3) NULL,
	  device_status VARCHAR(64) NULL,
	  result JSON NULL,
	  error_message VARCHAR(255) NULL,
	  dedupe_key CHAR(36) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  finished_at DATETIME(3) NULL,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_warranty_checks_dedupe (dedupe_key),
	  KEY ix_warranty_checks_work_order_id (work_order_id),
	  CONSTRAINT fk_warranty_checks_work_order FOREIGN KEY (work_order_id) REFERENCES work_orders(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS provider_events (
	  id CHAR(36) NOT NULL,
	  provider VARCHAR(32) NOT NULL,
	  event_id VARCHAR(128) NOT NULL,
	  event_type VARCHAR(64) NOT NULL,
	  payload_json JSON NOT NULL,
	  received_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  processed_at DATETIME(3) NULL,
	  process_error VARCHAR(255) NULL,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_provider_events_provider_event (provider, event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := sqlDB.Exec(sql); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("Tables created successfully")
}
