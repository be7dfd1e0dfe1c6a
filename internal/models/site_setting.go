// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// SettingCustomCSS holds site-wide CSS injected after the theme blocks.
const SettingCustomCSS = "custom_css"
