package patterns

// =============================================================================
// RULE DEFINITIONS BY CATEGORY
// All rules are registered here and compiled once at catalog load.
// This provides a single source of truth for all scam detection rules.
//
// Rules match against normalized (NFKC, lowercased, trimmed) text, so the
// patterns themselves are written in lowercase without (?i).
// =============================================================================

// --- ORGANIZATION IMPERSONATION (every distinct hit adds) ---
func (r *Registry) registerOrgImpersonationRules(weight int) {
	cat := CategoryOrgImpersonation

	r.register("spoofed_unicef", `unicef foundation`, cat, weight, "UNICEF impersonation")
	r.register("spoofed_facebook", `facebook foundation`, cat, weight, "Facebook Foundation impersonation")
	r.register("spoofed_givedirectly", `givedirectly`, cat, weight, "GiveDirectly impersonation")
	r.register("spoofed_safaricom", `safaricom foundation`, cat, weight, "Safaricom Foundation impersonation")
	r.register("spoofed_who", `world health organization|\bwho\b`, cat, weight, "WHO impersonation")
	r.register("spoofed_undp", `\bundp\b`, cat, weight, "UNDP impersonation")
	r.register("spoofed_mastercard", `mastercard foundation`, cat, weight, "Mastercard Foundation impersonation")
	r.register("spoofed_usaid", `\busaid\b`, cat, weight, "USAID impersonation")
	r.register("spoofed_redcross", `red cross kenya`, cat, weight, "Red Cross Kenya impersonation")
	r.register("spoofed_wfp", `world food programme|\bwfp\b`, cat, weight, "WFP impersonation")
	r.register("spoofed_meta_fund", `meta charitable fund`, cat, weight, "Meta charitable fund impersonation")
	r.register("spoofed_worldbank", `world bank youth fund`, cat, weight, "World Bank youth fund impersonation")
	r.register("spoofed_scholarship_africa", `scholarship africa`, cat, weight, "Scholarship Africa impersonation")
	r.register("spoofed_corona_relief", `corona relief fund`, cat, weight, "Corona relief fund impersonation")
}

// --- FINANCIAL SCAM INDICATORS (points and flag only at >=2 distinct hits) ---
func (r *Registry) registerFinancialScamRules(weight int) {
	cat := CategoryFinancialScam

	// Amounts commonly quoted in grant/bursary scams
	r.register("scam_amount", `\b(50,000|50000|5,000|5000|1,200|1200|500|300|250|800|1,500|1500|450|600|400|2,000|2000|10,000|10000)\b`, cat, weight, "Known scam amount")
	r.register("money_terms", `\b(ksh|kes|shilling|money|cash|grant|fund|bursary|scholarship|award|assistance|donation|relief)\b`, cat, weight, "Money or grant terms")
	r.register("fee_request", `\b(fee|processing fee|activation fee|admin fee|verification fee|documentation fee|clearing fee|logistics fee|delivery fee|placement fee|registration fee)\b`, cat, weight, "Advance-fee request")
	r.register("payment_channel", `\b(pay|send|transfer|deposit|mobile money|m-pesa|mpesa)\b`, cat, weight, "Payment instruction")
}

// --- URGENCY / PRESSURE TACTICS (each hit adds; flag raised once) ---
func (r *Registry) registerUrgencyRules(weight int) {
	cat := CategoryUrgency

	r.register("urgency_words", `urgent|hurry|limited|\bnow\b|immediate|quick|fast|don'?t miss|last chance|only few`, cat, weight, "Urgency language")
	r.register("false_congratulations", `congratulations|selected|pre-approved|eligible|qualify|winner|chosen`, cat, weight, "False congratulations / selection")
}

// --- DATA HARVESTING (points and flag only at >=2 distinct hits) ---
func (r *Registry) registerDataHarvestingRules(weight int) {
	cat := CategoryDataHarvesting

	r.register("personal_data_terms", `\b(id|identification|student id|bank details|account number|mobile number|phone number|pin|password|address)\b`, cat, weight, "Personal data request")
	r.register("verification_terms", `\b(verify|confirm|validation|authentication|register|sign up|apply|submit)\b`, cat, weight, "Verification pretext")
	r.register("form_terms", `\b(form|application|document|upload|provide|enter|fill)\b`, cat, weight, "Form or document request")
}

// --- KNOWN SCAM PHRASES (every distinct hit adds) ---
func (r *Registry) registerScamPhraseRules(weight int) {
	cat := CategoryScamPhrase

	r.register("grant_phrases", `child welfare grant|business grant|small business grant|cash assistance|relief package|support voucher`, cat, weight, "Grant / relief scam phrase")
	r.register("free_offers", `free.*test kits|free.*business boosts|free.*airtime|free.*voucher`, cat, weight, "Free giveaway bait")
	r.register("job_bait", `pata kazi|part time jobs|job placement|vacancies`, cat, weight, "Job placement bait")
	r.register("charity_bait", `flood victims|medical bills|donation|charity|help needed`, cat, weight, "Charity appeal bait")
	r.register("deal_bait", `half price|cheap|discount|offer|deal|promotion`, cat, weight, "Too-good-to-be-true deal")
}

// --- TIME-SENSITIVE PRESSURE (each hit adds; flag raised once) ---
func (r *Registry) registerTimeSensitiveRules(weight int) {
	cat := CategoryTimeSensitive

	r.register("today_only", `today only`, cat, weight, "Today-only pressure")
	r.register("within_hours", `within.*hours`, cat, weight, "Countdown pressure")
	r.register("before_tomorrow", `before.*tomorrow`, cat, weight, "Deadline pressure")
	r.register("expires_soon", `expires.*soon`, cat, weight, "Expiry pressure")
	r.register("last_day", `last.*day`, cat, weight, "Last-day pressure")
	r.register("final_call", `final.*call`, cat, weight, "Final-call pressure")
}

// --- LEGITIMACY SIGNALS (subtract; total capped at the legitimacy cap) ---
// Humor-marker and trusted-domain signals are computed by the scorer because
// they need counting and link parsing; these rules cover plain language cues.
func (r *Registry) registerLegitimacyRules(weight int) {
	cat := CategoryLegitimacy

	r.register("campus_language", `\b(lecture|class|semester|exam|cat|assignment|campus|timetable|graduation|unit registration)\b`, cat, weight, "Campus / academic language")
	r.register("event_language", `\b(meeting|agenda|minutes|venue|rsvp|rehearsal|seminar|workshop)\b`, cat, weight, "Event coordination language")
}
